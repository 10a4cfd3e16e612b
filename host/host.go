// Package host defines the narrow contract between a skill and the voice
// assistant runtime that loads it: persisted settings, spoken dialog output,
// and intent registration. The skill consumes these as capability objects so
// any host (a live assistant bus, a test harness, a CLI) can supply them.
package host

import "context"

// Settings is persisted key/value skill configuration. Values are stored as
// strings; typed parsing is the caller's concern.
type Settings interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Merge folds defaults into the settings. When newOnly is true, keys
	// that already exist keep their current value. Implementations persist
	// the result.
	Merge(defaults map[string]string, newOnly bool) error
}

// Dialog produces spoken output. The host owns the dialog templates and the
// TTS pipeline; the skill only names a template and supplies substitutions.
type Dialog interface {
	// SpeakDialog renders the named dialog template with data and speaks it.
	SpeakDialog(name string, data map[string]string) error
}

// Message is a routed intent activation delivered to a handler. Data carries
// the slot values the host extracted from the utterance.
type Message struct {
	Type string
	Data map[string]string
}

// Handler processes one intent activation.
type Handler func(ctx context.Context, msg Message)

// IntentService registers the skill's intents with the host. The host owns
// utterance parsing; handlers only see the routed result.
type IntentService interface {
	// RegisterIntent registers an intent matched against the utterance
	// templates the host ships for name (e.g. "DoYouRecall.intent").
	RegisterIntent(name string, h Handler) error

	// RegisterKeywordIntent registers an intent triggered by a single
	// vocabulary keyword.
	RegisterKeywordIntent(name, keyword string, h Handler) error
}

// RuntimeRequirements declares which host capabilities a skill needs before
// load and at runtime, and whether it keeps working when one is missing.
type RuntimeRequirements struct {
	InternetBeforeLoad bool `json:"internet_before_load"`
	NetworkBeforeLoad  bool `json:"network_before_load"`
	GUIBeforeLoad      bool `json:"gui_before_load"`
	RequiresInternet   bool `json:"requires_internet"`
	RequiresNetwork    bool `json:"requires_network"`
	RequiresGUI        bool `json:"requires_gui"`
	NoInternetFallback bool `json:"no_internet_fallback"`
	NoNetworkFallback  bool `json:"no_network_fallback"`
	NoGUIFallback      bool `json:"no_gui_fallback"`
}
