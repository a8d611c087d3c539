// File: internal/stacks/orchestration.go
// Brief: Orchestration stack: network, cluster, and load-balanced service.

package stacks

import (
	"strconv"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

// Output names exposed by the orchestration stack.
const (
	OutLoadBalancerDNS   = "LoadBalancerDNS"
	OutClusterName       = "ClusterName"
	OutServiceName       = "ServiceName"
	OutTaskDefinitionArn = "TaskDefinitionArn"
)

// Parameter names the orchestration stack imports from its prerequisites.
const (
	ParamUserPoolID       = "UserPoolId"
	ParamUserPoolArn      = "UserPoolArn"
	ParamUserPoolClientID = "UserPoolClientId"
	ParamRepositoryURI    = "RepositoryUri"
)

// Service sizing and control constants. Tasks get a grace window after
// launch before health checks count against them, and both scaling policies
// cool down in either direction so transient spikes don't thrash the fleet.
const (
	MinTasks = 1
	MaxTasks = 10

	CPUTargetPercent    = 70
	MemoryTargetPercent = 80
	ScaleCooldownSecs   = 60

	HealthCheckIntervalSecs = 30
	HealthCheckTimeoutSecs  = 5
	HealthyThreshold        = 2
	UnhealthyThreshold      = 3
	HealthCheckGraceSecs    = 60

	LogRetentionDays = 7

	ListenerPort  = 80
	containerName = "web"
)

// The only authentication operations the running service may call, scoped to
// the one user directory it serves (least privilege).
var taskAuthActions = []any{
	"cognito-idp:AdminInitiateAuth",
	"cognito-idp:AdminRespondToAuthChallenge",
	"cognito-idp:AdminGetUser",
}

// NewOrchestrationStack declares the service runtime: an isolated network, a
// container cluster, two identities (execution vs task), a bounded-retention
// log group, a public load-balanced service, and the autoscaling policy.
// Identity and registry values arrive as parameters, plain configuration
// copied at apply time rather than live object handles, so each stack can be
// destroyed and recreated independently while the referenced values stay
// valid.
func NewOrchestrationStack(app *synth.App, cfg *config.Options, identity, registry *synth.Stack) (*synth.Stack, error) {
	s, err := app.NewStack(cfg.StackName("orchestration"))
	if err != nil {
		return nil, err
	}
	s.SetDescription("Container service runtime for " + cfg.AppName)
	s.AddCapability("CAPABILITY_IAM")

	s.ImportOutput(ParamUserPoolID, identity, OutUserPoolID)
	s.ImportOutput(ParamUserPoolArn, identity, OutUserPoolArn)
	s.ImportOutput(ParamUserPoolClientID, identity, OutUserPoolClientID)
	s.ImportOutput(ParamRepositoryURI, registry, OutRepositoryURI)

	// The parameter wiring above already implies the ordering, but the
	// engine cannot infer an edge from the IAM policy that names the
	// directory ARN as a string, so both edges are declared explicitly.
	s.DependsOn(identity)
	s.DependsOn(registry)

	net := declareNetwork(s)

	s.AddResource("Cluster", "AWS::ECS::Cluster", map[string]any{
		"ClusterSettings": []any{
			map[string]any{"Name": "containerInsights", "Value": "enabled"},
		},
	})

	s.AddResource("LogGroup", "AWS::Logs::LogGroup", map[string]any{
		"RetentionInDays": LogRetentionDays,
	}).WithRemovalPolicy(synth.RemovalPolicyDestroy)

	// Execution identity: platform operations only (image pull, log write).
	s.AddResource("ExecutionRole", "AWS::IAM::Role", map[string]any{
		"AssumeRolePolicyDocument": assumeRoleDoc("ecs-tasks.amazonaws.com"),
		"ManagedPolicyArns": []any{
			"arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy",
		},
	})

	// Task identity: the three authentication calls, nothing else.
	s.AddResource("TaskRole", "AWS::IAM::Role", map[string]any{
		"AssumeRolePolicyDocument": assumeRoleDoc("ecs-tasks.amazonaws.com"),
		"Policies": []any{
			map[string]any{
				"PolicyName": "user-directory-auth",
				"PolicyDocument": map[string]any{
					"Version": "2012-10-17",
					"Statement": []any{
						map[string]any{
							"Effect":   "Allow",
							"Action":   taskAuthActions,
							"Resource": synth.Ref{LogicalID: ParamUserPoolArn},
						},
					},
				},
			},
		},
	})

	s.AddResource("TaskDefinition", "AWS::ECS::TaskDefinition", map[string]any{
		"Family":                  cfg.AppName,
		"Cpu":                     strconv.Itoa(cfg.CPU),
		"Memory":                  strconv.Itoa(cfg.MemoryMiB),
		"NetworkMode":             "awsvpc",
		"RequiresCompatibilities": []any{"FARGATE"},
		"ExecutionRoleArn":        synth.GetAtt{LogicalID: "ExecutionRole", Attribute: "Arn"},
		"TaskRoleArn":             synth.GetAtt{LogicalID: "TaskRole", Attribute: "Arn"},
		"ContainerDefinitions": []any{
			map[string]any{
				"Name":  containerName,
				"Image": synth.Sub{Template: "${" + ParamRepositoryURI + "}:" + cfg.ImageTag},
				"PortMappings": []any{
					map[string]any{"ContainerPort": cfg.ContainerPort, "Protocol": "tcp"},
				},
				// Non-secret configuration only. The client secret is
				// deliberately absent; operators inject it via their
				// secrets manager after fetching it out-of-band
				// (cfi secret client-secret).
				"Environment": []any{
					map[string]any{"Name": "USER_POOL_ID", "Value": synth.Ref{LogicalID: ParamUserPoolID}},
					map[string]any{"Name": "CLIENT_ID", "Value": synth.Ref{LogicalID: ParamUserPoolClientID}},
					map[string]any{"Name": "AWS_REGION", "Value": synth.Ref{LogicalID: "AWS::Region"}},
				},
				"LogConfiguration": map[string]any{
					"LogDriver": "awslogs",
					"Options": map[string]any{
						"awslogs-group":         synth.Ref{LogicalID: "LogGroup"},
						"awslogs-region":        synth.Ref{LogicalID: "AWS::Region"},
						"awslogs-stream-prefix": cfg.AppName,
					},
				},
			},
		},
	})

	s.AddResource("AlbSecurityGroup", "AWS::EC2::SecurityGroup", map[string]any{
		"GroupDescription": "Public ingress to the load balancer",
		"VpcId":            synth.Ref{LogicalID: net.vpcID},
		"SecurityGroupIngress": []any{
			map[string]any{
				"IpProtocol": "tcp",
				"FromPort":   ListenerPort,
				"ToPort":     ListenerPort,
				"CidrIp":     "0.0.0.0/0",
			},
		},
	})
	s.AddResource("ServiceSecurityGroup", "AWS::EC2::SecurityGroup", map[string]any{
		"GroupDescription": "Task ingress from the load balancer only",
		"VpcId":            synth.Ref{LogicalID: net.vpcID},
		"SecurityGroupIngress": []any{
			map[string]any{
				"IpProtocol":            "tcp",
				"FromPort":              cfg.ContainerPort,
				"ToPort":                cfg.ContainerPort,
				"SourceSecurityGroupId": synth.Ref{LogicalID: "AlbSecurityGroup"},
			},
		},
	})

	s.AddResource("LoadBalancer", "AWS::ElasticLoadBalancingV2::LoadBalancer", map[string]any{
		"Scheme":         "internet-facing",
		"Type":           "application",
		"Subnets":        net.subnetRefs(net.publicSubnets),
		"SecurityGroups": []any{synth.Ref{LogicalID: "AlbSecurityGroup"}},
	}).After("VpcGatewayAttachment")

	s.AddResource("TargetGroup", "AWS::ElasticLoadBalancingV2::TargetGroup", map[string]any{
		"VpcId":                      synth.Ref{LogicalID: net.vpcID},
		"Port":                       cfg.ContainerPort,
		"Protocol":                   "HTTP",
		"TargetType":                 "ip",
		"HealthCheckPath":            cfg.HealthCheckPath,
		"HealthCheckIntervalSeconds": HealthCheckIntervalSecs,
		"HealthCheckTimeoutSeconds":  HealthCheckTimeoutSecs,
		"HealthyThresholdCount":      HealthyThreshold,
		"UnhealthyThresholdCount":    UnhealthyThreshold,
	})

	s.AddResource("Listener", "AWS::ElasticLoadBalancingV2::Listener", map[string]any{
		"LoadBalancerArn": synth.Ref{LogicalID: "LoadBalancer"},
		"Port":            ListenerPort,
		"Protocol":        "HTTP",
		"DefaultActions": []any{
			map[string]any{"Type": "forward", "TargetGroupArn": synth.Ref{LogicalID: "TargetGroup"}},
		},
	})

	s.AddResource("Service", "AWS::ECS::Service", map[string]any{
		"Cluster":                       synth.Ref{LogicalID: "Cluster"},
		"TaskDefinition":                synth.Ref{LogicalID: "TaskDefinition"},
		"DesiredCount":                  cfg.DesiredCount,
		"LaunchType":                    "FARGATE",
		"HealthCheckGracePeriodSeconds": HealthCheckGraceSecs,
		"NetworkConfiguration": map[string]any{
			"AwsvpcConfiguration": map[string]any{
				"Subnets":        net.subnetRefs(net.privateSubnets),
				"SecurityGroups": []any{synth.Ref{LogicalID: "ServiceSecurityGroup"}},
				"AssignPublicIp": "DISABLED",
			},
		},
		"LoadBalancers": []any{
			map[string]any{
				"ContainerName":  containerName,
				"ContainerPort":  cfg.ContainerPort,
				"TargetGroupArn": synth.Ref{LogicalID: "TargetGroup"},
			},
		},
	}).After("Listener")

	s.AddResource("ScalableTarget", "AWS::ApplicationAutoScaling::ScalableTarget", map[string]any{
		"MinCapacity":       MinTasks,
		"MaxCapacity":       MaxTasks,
		"ResourceId":        serviceResourceID(),
		"ScalableDimension": "ecs:service:DesiredCount",
		"ServiceNamespace":  "ecs",
		"RoleARN":           synth.Sub{Template: "arn:aws:iam::${AWS::AccountId}:role/aws-service-role/ecs.application-autoscaling.amazonaws.com/AWSServiceRoleForApplicationAutoScaling_ECSService"},
	})

	scalingPolicy := func(id, metric string, target int) {
		s.AddResource(id, "AWS::ApplicationAutoScaling::ScalingPolicy", map[string]any{
			"PolicyName":      id,
			"PolicyType":      "TargetTrackingScaling",
			"ScalingTargetId": synth.Ref{LogicalID: "ScalableTarget"},
			"TargetTrackingScalingPolicyConfiguration": map[string]any{
				"PredefinedMetricSpecification": map[string]any{
					"PredefinedMetricType": metric,
				},
				"TargetValue":      target,
				"ScaleInCooldown":  ScaleCooldownSecs,
				"ScaleOutCooldown": ScaleCooldownSecs,
			},
		})
	}
	scalingPolicy("CpuScalingPolicy", "ECSServiceAverageCPUUtilization", CPUTargetPercent)
	scalingPolicy("MemoryScalingPolicy", "ECSServiceAverageMemoryUtilization", MemoryTargetPercent)

	s.AddOutput(OutLoadBalancerDNS, synth.GetAtt{LogicalID: "LoadBalancer", Attribute: "DNSName"}, "Public address of the load balancer")
	s.AddOutput(OutClusterName, synth.Ref{LogicalID: "Cluster"}, "Name of the container cluster")
	s.AddOutput(OutServiceName, synth.GetAtt{LogicalID: "Service", Attribute: "Name"}, "Name of the running service")
	s.AddOutput(OutTaskDefinitionArn, synth.Ref{LogicalID: "TaskDefinition"}, "ARN of the task definition")
	return s, nil
}

func assumeRoleDoc(service string) map[string]any {
	return map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{
				"Effect":    "Allow",
				"Principal": map[string]any{"Service": service},
				"Action":    "sts:AssumeRole",
			},
		},
	}
}

func serviceResourceID() synth.Join {
	return synth.Join{
		Delimiter: "",
		Values: []any{
			"service/",
			synth.Ref{LogicalID: "Cluster"},
			"/",
			synth.GetAtt{LogicalID: "Service", Attribute: "Name"},
		},
	}
}
