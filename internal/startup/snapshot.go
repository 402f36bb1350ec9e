package startup

import (
	pipelinemodels "launchpad/internal/pipeline/models"
	"launchpad/internal/startup/models"
)

// BuildSnapshot projects a startup's profile into the flat key→value map the
// rule evaluator consumes. Pure and deterministic; unset attributes are
// omitted so rules on missing keys fail closed instead of matching zero
// values.
func BuildSnapshot(s *models.Startup) pipelinemodels.Snapshot {
	snapshot := make(pipelinemodels.Snapshot, 8)
	if s.Vertical != nil && *s.Vertical != "" {
		snapshot["vertical"] = pipelinemodels.StringValue(*s.Vertical)
	}
	if s.BusinessModel != nil && *s.BusinessModel != "" {
		snapshot["business_model"] = pipelinemodels.StringValue(*s.BusinessModel)
	}
	if s.EmployeesQuantity != nil {
		snapshot["employees_quantity"] = pipelinemodels.NumberValue(float64(*s.EmployeesQuantity))
	}
	if s.AlreadyEarning != nil {
		snapshot["already_earning"] = pipelinemodels.BoolValue(*s.AlreadyEarning)
	}
	if s.MonthlyRevenue != nil {
		snapshot["monthly_revenue"] = pipelinemodels.NumberValue(*s.MonthlyRevenue)
	}
	if s.FoundationDate != nil {
		snapshot["foundation_date"] = pipelinemodels.TimeValue(*s.FoundationDate)
	}
	if len(s.TargetMarkets) > 0 {
		snapshot["target_markets"] = pipelinemodels.ListValue(s.TargetMarkets)
	}
	if s.Pitch != nil && *s.Pitch != "" {
		snapshot["pitch"] = pipelinemodels.StringValue(*s.Pitch)
	}
	return snapshot
}
