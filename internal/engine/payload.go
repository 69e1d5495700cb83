package engine

import "github.com/dta-platform/assessment-engine/internal/models"

// BuildCreatePayload maps a new definition into the create submission
// shape: all modules, every persisted question, and, for assessments, the
// welcome screen doubled at top level plus the recommendation array.
func BuildCreatePayload(def *models.FormDefinition) *models.SubmissionPayload {
	payload := basePayload(def)
	for i := range def.Questions {
		q := &def.Questions[i]
		if !q.Type.Persisted() {
			continue
		}
		payload.Questions = append(payload.Questions, buildAPIQuestion(q, def.FormType))
	}
	return payload
}

// BuildUpdatePayload maps the store's edited definition into the update
// submission shape: full module list, the modified-or-new question set only,
// and the id lists the collaborator must delete server-side. Deleted ids are
// the union of the diff against the snapshot and the store's explicit
// deletion records.
func BuildUpdatePayload(store *DefinitionStore) *models.SubmissionPayload {
	def := store.Definition()
	payload := basePayload(def)
	diff := Diff(store.Original(), def)
	for _, q := range diff.ModifiedOrNew() {
		if !q.Type.Persisted() {
			continue
		}
		payload.Questions = append(payload.Questions, buildAPIQuestion(&q, def.FormType))
	}
	payload.DeletedQuestions = mergeDeletedIDs(diff.DeletedQuestionIDs, store.DeletedQuestionIDs())
	payload.DeletedModules = mergeDeletedIDs(diff.DeletedModuleIDs, store.DeletedModuleIDs())
	payload.DeletedServiceRecommendations = mergeDeletedIDs(diff.DeletedRecommendationIDs, store.DeletedRecommendationIDs())
	return payload
}

// mergeDeletedIDs unions the diff-derived ids with the store's tracked ids,
// keeping the diff's order and dropping duplicates.
func mergeDeletedIDs(fromDiff, tracked []string) []string {
	if len(tracked) == 0 {
		return fromDiff
	}
	seen := make(map[string]struct{}, len(fromDiff)+len(tracked))
	out := append([]string(nil), fromDiff...)
	for _, id := range fromDiff {
		seen[id] = struct{}{}
	}
	for _, id := range tracked {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func basePayload(def *models.FormDefinition) *models.SubmissionPayload {
	payload := &models.SubmissionPayload{
		WelcomeTitle:       def.WelcomeScreen.Title,
		WelcomeDescription: def.WelcomeScreen.Description,
		WelcomeInstruction: def.WelcomeScreen.Instruction,
		Modules:            make([]models.APIModule, 0, len(def.Modules)),
		Questions:          make([]models.APIQuestion, 0, len(def.Questions)),
	}
	for _, m := range def.Modules {
		payload.Modules = append(payload.Modules, models.APIModule{
			TempID:      m.TempID,
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Order:       m.Order,
		})
	}
	if def.FormType == models.FormTypeAssessment {
		payload.Title = def.WelcomeScreen.Title
		payload.Description = def.WelcomeScreen.Description
		payload.Instruction = def.WelcomeScreen.Instruction
		payload.ServiceRecommendations = buildAPIRecommendations(def.ServiceRecommendations)
	}
	return payload
}

// buildAPIRecommendations maps the configured recommendations; an empty
// configuration yields nil so the field is omitted from the payload rather
// than sent as an empty array.
func buildAPIRecommendations(recs []models.ServiceRecommendation) []models.APIServiceRecommendation {
	if len(recs) == 0 {
		return nil
	}
	out := make([]models.APIServiceRecommendation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.APIServiceRecommendation{
			ID:          rec.ID,
			ServiceID:   rec.ServiceID,
			ServiceName: rec.ServiceName,
			Description: rec.Description,
			MinPoints:   rec.MinPoints,
			MaxPoints:   rec.MaxPoints,
			Levels:      rec.Levels,
		})
	}
	return out
}

// buildAPIQuestion produces the type-narrowed wire object for one question.
// Only fields relevant to the question's type are set, then the clean pass
// drops anything unset so no null or undefined value leaks into the
// transmitted object.
func buildAPIQuestion(q *models.Question, formType models.FormType) models.APIQuestion {
	obj := models.APIQuestion{
		"type":        string(q.Type),
		"question":    q.Text,
		"description": q.Description,
		"instruction": q.Instruction,
		"is_required": q.IsRequired,
		"step":        q.Step,
		"module_ref":  q.ModuleRef,
	}
	if q.ID != "" {
		obj["id"] = q.ID
	} else {
		obj["temp_id"] = q.TempID
	}

	switch q.Type {
	case models.MultipleChoice:
		obj["options"] = buildAPIOptions(q.Options, formType)
	case models.Checkbox:
		obj["options"] = buildAPIOptions(q.Options, formType)
		if q.MinSelections != nil {
			obj["min_selections"] = *q.MinSelections
		}
		if q.MaxSelections != nil {
			obj["max_selections"] = *q.MaxSelections
		}
	case models.Dropdown:
		obj["options"] = buildAPIOptions(q.Options, formType)
		obj["placeholder"] = q.Placeholder
	case models.ShortText, models.LongText:
		obj["placeholder"] = q.Placeholder
		if q.MinLength != nil {
			obj["min_characters"] = *q.MinLength
		}
		if q.MaxLength != nil {
			obj["max_characters"] = *q.MaxLength
		}
		if q.CompletionPoints != nil {
			obj["completion_points"] = *q.CompletionPoints
		}
		if q.Type == models.LongText && len(q.KeywordScoring) > 0 {
			obj["keyword_scoring"] = q.KeywordScoring
		}
	case models.MultipleChoiceGrid:
		obj["grid_columns"] = q.Columns
		obj["grid_rows"] = q.Rows
	case models.FileUpload:
		obj["acceptedFileTypes"] = q.AcceptedTypes
		if q.MaxFileSizeMB != nil {
			obj["max_file_size"] = *q.MaxFileSizeMB
		}
		if q.MaxFiles != nil {
			obj["max_files"] = *q.MaxFiles
		}
		obj["upload_instruction"] = q.UploadInstruction
	}

	return cleanAPIQuestion(obj)
}

func buildAPIOptions(options []models.Option, formType models.FormType) []models.APIOption {
	out := make([]models.APIOption, 0, len(options))
	for _, opt := range options {
		api := models.APIOption{
			ID:    opt.Label,
			Text:  opt.Description,
			Value: opt.Label,
		}
		if formType == models.FormTypeAssessment {
			points := opt.PointValue
			api.Points = &points
		}
		out = append(out, api)
	}
	return out
}

// cleanAPIQuestion is the cross-cutting post-processing rule applied to
// every constructed question object: unset optional fields are removed
// entirely instead of travelling as nulls or empty values.
func cleanAPIQuestion(obj models.APIQuestion) models.APIQuestion {
	for key, value := range obj {
		switch key {
		case "type", "question", "is_required", "step", "module_ref":
			continue
		}
		switch v := value.(type) {
		case nil:
			delete(obj, key)
		case string:
			if v == "" {
				delete(obj, key)
			}
		case []string:
			if len(v) == 0 {
				delete(obj, key)
			}
		case []models.APIOption:
			if len(v) == 0 {
				delete(obj, key)
			}
		case []models.KeywordScore:
			if len(v) == 0 {
				delete(obj, key)
			}
		case []models.GridColumn:
			if len(v) == 0 {
				delete(obj, key)
			}
		case []models.GridRow:
			if len(v) == 0 {
				delete(obj, key)
			}
		}
	}
	return obj
}
