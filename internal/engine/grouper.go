package engine

import (
	"sort"

	"github.com/dta-platform/assessment-engine/internal/models"
)

// Step is one unit of wizard navigation. The default grouping policy puts
// one question per step; questions carrying the same explicit step number
// within a module co-locate, and trailing meta questions that are not
// module-scoped (service recommendation screens) join the final step of
// the module that holds them.
type Step struct {
	Questions []models.Question
}

// ModuleGroup is one respondent-facing module with its ordered steps.
type ModuleGroup struct {
	ModuleKey  string
	ModuleName string
	Steps      []Step
}

// Group partitions the flat question list into the module -> step -> question
// tree the wizard navigates. Pure: identical input yields an identical tree,
// and the inputs are never mutated. Questions whose ModuleRef resolves to no
// module are excluded here; CheckIntegrity surfaces them separately.
func Group(questions []models.Question, modules []models.Module) []ModuleGroup {
	ordered := append([]models.Module(nil), modules...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	byModule := make(map[string][]models.Question, len(ordered))
	for _, q := range questions {
		byModule[q.ModuleRef] = append(byModule[q.ModuleRef], q)
	}

	groups := make([]ModuleGroup, 0, len(ordered))
	for _, m := range ordered {
		moduleQuestions := byModule[m.Key()]
		sort.SliceStable(moduleQuestions, func(i, j int) bool {
			return moduleQuestions[i].Order < moduleQuestions[j].Order
		})

		group := ModuleGroup{ModuleKey: m.Key(), ModuleName: m.Title}
		stepSlot := make(map[int]int, len(moduleQuestions))
		for _, q := range moduleQuestions {
			if q.Type == models.ServiceRecommendations && len(group.Steps) > 0 {
				last := &group.Steps[len(group.Steps)-1]
				last.Questions = append(last.Questions, q)
				continue
			}
			// An explicit step number co-locates questions; unnumbered
			// questions get a step of their own.
			if q.Step > 0 {
				if slot, ok := stepSlot[q.Step]; ok {
					group.Steps[slot].Questions = append(group.Steps[slot].Questions, q)
					continue
				}
				stepSlot[q.Step] = len(group.Steps)
			}
			group.Steps = append(group.Steps, Step{Questions: []models.Question{q}})
		}
		if len(group.Steps) == 0 {
			continue
		}
		groups = append(groups, group)
	}
	return groups
}

// TotalSteps counts navigable steps across the grouped tree.
func TotalSteps(groups []ModuleGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Steps)
	}
	return total
}
