// File: internal/stacks/network.go
// Brief: Isolated network declaration for the orchestration stack.

package stacks

import (
	"fmt"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

// network carries the logical ids dependent resources wire against.
type network struct {
	vpcID          string
	publicSubnets  []string
	privateSubnets []string
}

// declareNetwork lays out a two-AZ network: public subnets for the
// internet-facing load balancer, egress-only private subnets for the
// workload. A single NAT gateway carries private egress; the workload has no
// inbound path except through the load balancer.
func declareNetwork(s *synth.Stack) network {
	s.AddResource("Vpc", "AWS::EC2::VPC", map[string]any{
		"CidrBlock":          "10.0.0.0/16",
		"EnableDnsSupport":   true,
		"EnableDnsHostnames": true,
	})

	s.AddResource("InternetGateway", "AWS::EC2::InternetGateway", nil)
	s.AddResource("VpcGatewayAttachment", "AWS::EC2::VPCGatewayAttachment", map[string]any{
		"VpcId":             synth.Ref{LogicalID: "Vpc"},
		"InternetGatewayId": synth.Ref{LogicalID: "InternetGateway"},
	})

	n := network{vpcID: "Vpc"}
	for i := 0; i < 2; i++ {
		pub := fmt.Sprintf("PublicSubnet%d", i+1)
		priv := fmt.Sprintf("PrivateSubnet%d", i+1)
		s.AddResource(pub, "AWS::EC2::Subnet", map[string]any{
			"VpcId":               synth.Ref{LogicalID: "Vpc"},
			"CidrBlock":           fmt.Sprintf("10.0.%d.0/24", i),
			"AvailabilityZone":    synth.Select{Index: i, Of: synth.GetAZs{}},
			"MapPublicIpOnLaunch": true,
		})
		s.AddResource(priv, "AWS::EC2::Subnet", map[string]any{
			"VpcId":            synth.Ref{LogicalID: "Vpc"},
			"CidrBlock":        fmt.Sprintf("10.0.%d.0/24", i+2),
			"AvailabilityZone": synth.Select{Index: i, Of: synth.GetAZs{}},
		})
		n.publicSubnets = append(n.publicSubnets, pub)
		n.privateSubnets = append(n.privateSubnets, priv)
	}

	s.AddResource("PublicRouteTable", "AWS::EC2::RouteTable", map[string]any{
		"VpcId": synth.Ref{LogicalID: "Vpc"},
	})
	s.AddResource("PublicDefaultRoute", "AWS::EC2::Route", map[string]any{
		"RouteTableId":         synth.Ref{LogicalID: "PublicRouteTable"},
		"DestinationCidrBlock": "0.0.0.0/0",
		"GatewayId":            synth.Ref{LogicalID: "InternetGateway"},
	}).After("VpcGatewayAttachment")

	s.AddResource("NatEip", "AWS::EC2::EIP", map[string]any{
		"Domain": "vpc",
	})
	s.AddResource("NatGateway", "AWS::EC2::NatGateway", map[string]any{
		"AllocationId": synth.GetAtt{LogicalID: "NatEip", Attribute: "AllocationId"},
		"SubnetId":     synth.Ref{LogicalID: "PublicSubnet1"},
	}).After("VpcGatewayAttachment")

	s.AddResource("PrivateRouteTable", "AWS::EC2::RouteTable", map[string]any{
		"VpcId": synth.Ref{LogicalID: "Vpc"},
	})
	s.AddResource("PrivateDefaultRoute", "AWS::EC2::Route", map[string]any{
		"RouteTableId":         synth.Ref{LogicalID: "PrivateRouteTable"},
		"DestinationCidrBlock": "0.0.0.0/0",
		"NatGatewayId":         synth.Ref{LogicalID: "NatGateway"},
	})

	for i, sub := range n.publicSubnets {
		s.AddResource(fmt.Sprintf("PublicSubnetRouteAssoc%d", i+1), "AWS::EC2::SubnetRouteTableAssociation", map[string]any{
			"SubnetId":     synth.Ref{LogicalID: sub},
			"RouteTableId": synth.Ref{LogicalID: "PublicRouteTable"},
		})
	}
	for i, sub := range n.privateSubnets {
		s.AddResource(fmt.Sprintf("PrivateSubnetRouteAssoc%d", i+1), "AWS::EC2::SubnetRouteTableAssociation", map[string]any{
			"SubnetId":     synth.Ref{LogicalID: sub},
			"RouteTableId": synth.Ref{LogicalID: "PrivateRouteTable"},
		})
	}
	return n
}

func (n network) subnetRefs(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, synth.Ref{LogicalID: id})
	}
	return out
}
