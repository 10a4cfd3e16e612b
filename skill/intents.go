package skill

import (
	"fmt"

	"github.com/meepi-labs/neartotalrecall/host"
)

// Intent names the skill registers. The host owns the matching utterance
// templates and keyword vocabularies.
const (
	IntentRecall       = "DoYouRecall.intent"
	IntentRoboticsLaws = "RoboticsLawsIntent"

	// KeywordLaw is the vocabulary entry that triggers IntentRoboticsLaws.
	KeywordLaw = "LawKeyword"

	// SlotQuery carries the free text captured by the recall intent.
	SlotQuery = "query"
)

// Dialog template names the skill speaks.
const (
	DialogErrorInitialization = "error_initialization"
	DialogReciteMemory        = "recite_memory"
	DialogNoMemoryFound       = "no_memory_found"
	DialogRobotics            = "robotics"
)

// IntentDefinition describes one intent registration. A non-empty Keyword
// registers a keyword-triggered intent, otherwise an utterance-template one.
type IntentDefinition struct {
	Name    string
	Keyword string
	Handler host.Handler
}

// Definitions lists the intents the skill serves, in registration order.
func (s *Skill) Definitions() []IntentDefinition {
	return []IntentDefinition{
		{Name: IntentRecall, Handler: s.HandleRecall},
		{Name: IntentRoboticsLaws, Keyword: KeywordLaw, Handler: s.HandleRoboticsLaws},
	}
}

// Register registers every intent definition with the host intent service.
func (s *Skill) Register(svc host.IntentService) error {
	for _, def := range s.Definitions() {
		var err error
		if def.Keyword != "" {
			err = svc.RegisterKeywordIntent(def.Name, def.Keyword, def.Handler)
		} else {
			err = svc.RegisterIntent(def.Name, def.Handler)
		}
		if err != nil {
			return fmt.Errorf("register intent %s: %w", def.Name, err)
		}
	}
	return nil
}
