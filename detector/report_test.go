package detector

import (
	"encoding/json"
	"testing"
)

func TestChooseWorkgroup(t *testing.T) {
	cases := []struct {
		limits Limits
		want   uint32
	}{
		{Limits{MaxComputeWorkgroupSizeX: 1024, MaxComputeInvocationsPerWorkgroup: 1024}, 256},
		{Limits{MaxComputeWorkgroupSizeX: 100, MaxComputeInvocationsPerWorkgroup: 1024}, 64},
		{Limits{MaxComputeWorkgroupSizeX: 256, MaxComputeInvocationsPerWorkgroup: 20}, 16},
		{Limits{}, 1},
	}
	for _, c := range cases {
		x, y, z := chooseWorkgroup(c.limits)
		if x != c.want || y != 1 || z != 1 {
			t.Errorf("limits %+v: expected (%d,1,1), got (%d,%d,%d)", c.limits, c.want, x, y, z)
		}
	}
}

func TestRecommendBudget(t *testing.T) {
	t.Setenv(BudgetEnv, "64")
	r := &Report{Limits: Limits{
		MaxComputeWorkgroupSizeX:          256,
		MaxComputeInvocationsPerWorkgroup: 256,
		MaxComputeWorkgroupsPerDimension:  65535,
		MaxStorageBufferBindingSize:       128 << 20,
	}}
	r.Recommend()

	if r.Recommended.BudgetBytes != 64<<20 {
		t.Errorf("Expected 64MB budget, got %d", r.Recommended.BudgetBytes)
	}
	if r.Recommended.MaxElements != (128<<20)/4 {
		t.Errorf("Expected binding-size bound %d, got %d", (128<<20)/4, r.Recommended.MaxElements)
	}
	if r.Env[BudgetEnv] != "64" {
		t.Errorf("Expected env to record %s", BudgetEnv)
	}
}

func TestRecommendDefaultBudget(t *testing.T) {
	t.Setenv(BudgetEnv, "not-a-number")
	r := &Report{}
	r.Recommend()
	if r.Recommended.BudgetBytes != defaultBudget {
		t.Errorf("Expected default budget, got %d", r.Recommended.BudgetBytes)
	}
}

func TestReportJSON(t *testing.T) {
	r := &Report{Name: "Test GPU", Backend: "Vulkan", Limits: Limits{MaxComputeWorkgroupsPerDimension: 65535}}
	s, err := r.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal([]byte(s), &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if back["name"] != "Test GPU" {
		t.Errorf("Expected name field, got %v", back["name"])
	}
}
