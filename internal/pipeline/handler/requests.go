package handler

import (
	"time"

	"launchpad/internal/pipeline"
	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
)

type createProgramRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// dates parses the program window. Both RFC 3339 instants and plain
// calendar dates are accepted.
func (r createProgramRequest) dates() (time.Time, time.Time, error) {
	start, ok := models.ParseInstant(r.StartDate)
	if !ok {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeBadRequest, "invalid start date")
	}
	end, ok := models.ParseInstant(r.EndDate)
	if !ok {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeBadRequest, "invalid end date")
	}
	return start, end, nil
}

type createStageRequest struct {
	Name string `json:"name"`
}

type createRuleRequest struct {
	StageID     string           `json:"stage_id"`
	Key         string           `json:"key"`
	FieldType   string           `json:"field_type"`
	Rule        string           `json:"rule"`
	Comparisons []string         `json:"comparation_type"`
	Options     []ruleOptionBody `json:"options"`
}

type ruleOptionBody struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (r createRuleRequest) toInput(programID id.ProgramID) (pipeline.CreateRuleInput, error) {
	stageID, err := id.ParseStageID(r.StageID)
	if err != nil {
		return pipeline.CreateRuleInput{}, dErrors.New(dErrors.CodeBadRequest, "invalid stage id")
	}
	comparisons := make([]models.Comparison, 0, len(r.Comparisons))
	for _, c := range r.Comparisons {
		comparisons = append(comparisons, models.Comparison(c))
	}
	options := make([]models.Option, 0, len(r.Options))
	for _, o := range r.Options {
		options = append(options, models.Option{Value: o.Value, Label: o.Label})
	}
	return pipeline.CreateRuleInput{
		ProgramID:   programID,
		StageID:     stageID,
		Key:         r.Key,
		FieldType:   models.FieldType(r.FieldType),
		Rule:        r.Rule,
		Comparisons: comparisons,
		Options:     options,
	}, nil
}

type subscribeRequest struct {
	StartupID string `json:"startup_id"`
}

type moveCardRequest struct {
	FromStageID string `json:"from_stage_id"`
	ToStageID   string `json:"to_stage_id"`
	Position    int    `json:"position"`
}

type programResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	CreatedAt      time.Time `json:"created_at"`
}

func toProgramResponse(program *models.Program) programResponse {
	return programResponse{
		ID:             program.ID.String(),
		OrganizationID: program.OrganizationID.String(),
		Name:           program.Name,
		StartDate:      program.StartDate,
		EndDate:        program.EndDate,
		CreatedAt:      program.CreatedAt,
	}
}

type stageResponse struct {
	ID           string    `json:"id"`
	ProgramID    string    `json:"program_id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func toStageResponse(stage *models.Stage) stageResponse {
	return stageResponse{
		ID:           stage.ID.String(),
		ProgramID:    stage.ProgramID.String(),
		Name:         stage.Name,
		DisplayOrder: stage.DisplayOrder,
		CreatedAt:    stage.CreatedAt,
	}
}

type ruleResponse struct {
	ID          string           `json:"id"`
	StageID     string           `json:"stage_id"`
	Key         string           `json:"key"`
	FieldType   string           `json:"field_type"`
	Rule        string           `json:"rule"`
	Comparisons []string         `json:"comparation_type"`
	Options     []ruleOptionBody `json:"options,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toRuleResponse(rule *models.Rule) ruleResponse {
	comparisons := make([]string, 0, len(rule.Comparisons))
	for _, c := range rule.Comparisons {
		comparisons = append(comparisons, string(c))
	}
	var options []ruleOptionBody
	for _, o := range rule.Options {
		options = append(options, ruleOptionBody{Value: o.Value, Label: o.Label})
	}
	return ruleResponse{
		ID:          rule.ID.String(),
		StageID:     rule.StageID.String(),
		Key:         rule.Key,
		FieldType:   string(rule.FieldType),
		Rule:        rule.Rule,
		Comparisons: comparisons,
		Options:     options,
		CreatedAt:   rule.CreatedAt,
	}
}

type cardResponse struct {
	ID        string    `json:"id"`
	StageID   string    `json:"stage_id"`
	StartupID string    `json:"startup_id"`
	Position  int       `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCardResponse(card *models.Card) cardResponse {
	return cardResponse{
		ID:        card.ID.String(),
		StageID:   card.StageID.String(),
		StartupID: card.StartupID.String(),
		Position:  card.Position,
		UpdatedAt: card.UpdatedAt,
	}
}

type boardResponse struct {
	ProgramID string        `json:"program_id"`
	Stages    []boardColumn `json:"stages"`
}

type boardColumn struct {
	Stage stageResponse  `json:"stage"`
	Cards []cardResponse `json:"cards"`
}

func toBoardResponse(programID id.ProgramID, board []*pipeline.BoardStage) boardResponse {
	columns := make([]boardColumn, 0, len(board))
	for _, bs := range board {
		cards := make([]cardResponse, 0, len(bs.Cards))
		for _, card := range bs.Cards {
			cards = append(cards, toCardResponse(card))
		}
		columns = append(columns, boardColumn{Stage: toStageResponse(bs.Stage), Cards: cards})
	}
	return boardResponse{ProgramID: programID.String(), Stages: columns}
}
