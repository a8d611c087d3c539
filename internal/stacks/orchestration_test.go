package stacks

import (
	"strings"
	"testing"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
)

func TestTargetGroupHealthCheck(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))
	props := resourceProps(t, doc, "TargetGroup")

	checks := map[string]float64{
		"HealthCheckIntervalSeconds": 30,
		"HealthCheckTimeoutSeconds":  5,
		"HealthyThresholdCount":      2,
		"UnhealthyThresholdCount":    3,
		"Port":                       float64(cfg.ContainerPort),
	}
	for key, want := range checks {
		got, ok := props[key].(float64)
		if !ok || got != want {
			t.Errorf("%s = %v, want %v", key, props[key], want)
		}
	}
	if props["HealthCheckPath"] != "/health" {
		t.Errorf("HealthCheckPath = %v, want /health", props["HealthCheckPath"])
	}
}

func TestServiceGracePeriodAndDesiredCount(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))
	props := resourceProps(t, doc, "Service")

	if got := props["HealthCheckGracePeriodSeconds"].(float64); got != 60 {
		t.Errorf("grace period = %v, want 60", got)
	}
	if got := props["DesiredCount"].(float64); got != 1 {
		t.Errorf("desired count = %v, want 1", got)
	}
	if got := props["LaunchType"]; got != "FARGATE" {
		t.Errorf("launch type = %v, want FARGATE", got)
	}
}

func TestListenerForwardsToContainerPort(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))

	listener := resourceProps(t, doc, "Listener")
	if got := listener["Port"].(float64); got != 80 {
		t.Errorf("listener port = %v, want 80", got)
	}
	service := resourceProps(t, doc, "Service")
	lbs := service["LoadBalancers"].([]any)
	if len(lbs) != 1 {
		t.Fatalf("service registers %d load balancers, want 1", len(lbs))
	}
	if got := lbs[0].(map[string]any)["ContainerPort"].(float64); got != 8000 {
		t.Errorf("container port = %v, want 8000", got)
	}
}

func TestAutoscalingBoundsAndTargets(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))

	target := resourceProps(t, doc, "ScalableTarget")
	if got := target["MinCapacity"].(float64); got != 1 {
		t.Errorf("MinCapacity = %v, want 1", got)
	}
	if got := target["MaxCapacity"].(float64); got != 10 {
		t.Errorf("MaxCapacity = %v, want 10", got)
	}

	wantTargets := map[string]float64{
		"CpuScalingPolicy":    70,
		"MemoryScalingPolicy": 80,
	}
	for id, want := range wantTargets {
		props := resourceProps(t, doc, id)
		ttc := props["TargetTrackingScalingPolicyConfiguration"].(map[string]any)
		if got := ttc["TargetValue"].(float64); got != want {
			t.Errorf("%s target = %v, want %v", id, got, want)
		}
		for _, cd := range []string{"ScaleInCooldown", "ScaleOutCooldown"} {
			if got := ttc[cd].(float64); got != 60 {
				t.Errorf("%s %s = %v, want 60", id, cd, got)
			}
		}
	}
}

func TestTaskEnvironmentCarriesNoSecret(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))
	props := resourceProps(t, doc, "TaskDefinition")

	containers := props["ContainerDefinitions"].([]any)
	if len(containers) != 1 {
		t.Fatalf("%d container definitions, want 1", len(containers))
	}
	env := containers[0].(map[string]any)["Environment"].([]any)
	names := make([]string, 0, len(env))
	for _, e := range env {
		name := e.(map[string]any)["Name"].(string)
		if strings.Contains(strings.ToLower(name), "secret") {
			t.Errorf("environment variable %s must not be declared in the template", name)
		}
		names = append(names, name)
	}
	want := map[string]bool{"USER_POOL_ID": false, "CLIENT_ID": false, "AWS_REGION": false}
	for _, n := range names {
		if _, ok := want[n]; !ok {
			t.Errorf("unexpected environment variable %s", n)
			continue
		}
		want[n] = true
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("missing environment variable %s", n)
		}
	}
}

func TestTaskRoleGrantsOnlyAuthActions(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))
	props := resourceProps(t, doc, "TaskRole")

	policies := props["Policies"].([]any)
	if len(policies) != 1 {
		t.Fatalf("%d inline policies, want 1", len(policies))
	}
	stmts := policies[0].(map[string]any)["PolicyDocument"].(map[string]any)["Statement"].([]any)
	if len(stmts) != 1 {
		t.Fatalf("%d statements, want 1", len(stmts))
	}
	actions := stmts[0].(map[string]any)["Action"].([]any)
	if len(actions) != 3 {
		t.Fatalf("%d actions, want 3", len(actions))
	}
	for _, a := range actions {
		if !strings.HasPrefix(a.(string), "cognito-idp:") {
			t.Errorf("action %v outside the user directory namespace", a)
		}
	}
}

func TestServiceRunsInPrivateSubnetsWithoutPublicIP(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))
	props := resourceProps(t, doc, "Service")

	awsvpc := props["NetworkConfiguration"].(map[string]any)["AwsvpcConfiguration"].(map[string]any)
	if got := awsvpc["AssignPublicIp"]; got != "DISABLED" {
		t.Errorf("AssignPublicIp = %v, want DISABLED", got)
	}
	subnets := awsvpc["Subnets"].([]any)
	if len(subnets) != 2 {
		t.Fatalf("service placed in %d subnets, want 2", len(subnets))
	}
	for _, s := range subnets {
		ref := s.(map[string]any)["Ref"].(string)
		if !strings.HasPrefix(ref, "PrivateSubnet") {
			t.Errorf("service subnet %s is not private", ref)
		}
	}
}

func TestLogRetentionBounded(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("orchestration"))
	props := resourceProps(t, doc, "LogGroup")
	if got := props["RetentionInDays"].(float64); got != 7 {
		t.Errorf("RetentionInDays = %v, want 7", got)
	}
}
