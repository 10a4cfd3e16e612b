// Package skill implements the Near Total Recall voice skill: spoken
// "do you recall ..." queries answered from a precomputed memory bank.
//
// The skill loads three data artifacts (the cleaned memory table, its
// embedding matrix, and the original memory table) plus an embedding
// model at construction time. Loads fail soft: a missing artifact is
// logged, the affected operation degrades to an empty answer, and the
// skill speaks an initialization error once so the user knows recall is
// not servable.
package skill

import (
	"context"
	"errors"

	"github.com/meepi-labs/neartotalrecall/host"
	"github.com/meepi-labs/neartotalrecall/logging"
	"github.com/meepi-labs/neartotalrecall/memory"
)

// SkillID identifies the skill to the host.
const SkillID = "near-total-recall"

// Deps are the host capability objects the skill builds on.
type Deps struct {
	Settings host.Settings
	Dialog   host.Dialog
	Logger   logging.Logger // optional
}

// Skill answers recall queries over the loaded memory artifacts.
type Skill struct {
	settings  host.Settings
	dialog    host.Dialog
	log       logging.Logger
	retriever *memory.Retriever
}

// New merges the default settings, reads the typed config, and loads the
// data artifacts and model. Artifact failures degrade the skill instead of
// failing construction; when the recall path is not servable the skill
// speaks the initialization error dialog once. New itself only fails when
// a required capability object is missing.
func New(deps Deps) (*Skill, error) {
	if deps.Settings == nil {
		return nil, errors.New("skill: Settings is required")
	}
	if deps.Dialog == nil {
		return nil, errors.New("skill: Dialog is required")
	}
	log := deps.Logger
	if log == nil {
		log = logging.NoOp{}
	}

	s := &Skill{settings: deps.Settings, dialog: deps.Dialog, log: log}

	if err := s.settings.Merge(DefaultSettings(), true); err != nil {
		log.Warn("failed to merge default settings", "error", err)
	}
	cfg := readConfig(s.settings, log)

	cleaned, err := memory.LoadTable(cfg.CleanedDataPath)
	if err != nil {
		log.Error("failed to load cleaned memory table", "path", cfg.CleanedDataPath, "error", err)
	}
	matrix, err := memory.LoadMatrix(cfg.EmbeddingsPath)
	if err != nil {
		log.Error("failed to load embedding matrix", "path", cfg.EmbeddingsPath, "error", err)
	}
	original, err := memory.LoadTable(cfg.OriginalDataPath)
	if err != nil {
		log.Error("failed to load original memory table", "path", cfg.OriginalDataPath, "error", err)
	}

	var embedder memory.Embedder
	if emb, err := loadModel(cfg); err != nil {
		log.Error("failed to load embedding model", "model", cfg.ModelName, "error", err)
	} else {
		embedder = emb
	}

	if embedder != nil && cfg.EmbeddingCache {
		cached, err := memory.NewCachedEmbedder(embedder, embeddingCacheEntries)
		if err != nil {
			log.Warn("embedding cache disabled", "error", err)
		} else {
			embedder = cached
		}
	}

	s.retriever = memory.NewRetriever(memory.Config{
		Embedder:  embedder,
		Cleaned:   cleaned,
		Matrix:    matrix,
		Original:  original,
		TopN:      cfg.TopN,
		Threshold: cfg.Threshold,
		Logger:    log,
	})

	if !s.retriever.Ready() {
		s.speak(DialogErrorInitialization, nil)
	}
	return s, nil
}

// HandleRecall serves the recall intent: find the memories closest to the
// spoken query, resolve the best match to its full text, and recite it.
// Every failure path answers with the no-memory dialog so the user always
// hears a response.
func (s *Skill) HandleRecall(ctx context.Context, msg host.Message) {
	query := msg.Data[SlotQuery]
	s.log.Info("received query for recall", "query", query)

	matches, err := s.retriever.FindClosest(ctx, query)
	if err != nil {
		s.log.Error("memory retrieval failed", "error", err)
		s.speak(DialogNoMemoryFound, nil)
		return
	}
	if len(matches) == 0 {
		s.speak(DialogNoMemoryFound, nil)
		return
	}

	best := matches[0]
	text, ok := s.retriever.ResolveFull(best.Timestamp)
	if !ok {
		s.log.Warn("best match has no full memory", "timestamp", best.Timestamp, "score", best.Score)
		s.speak(DialogNoMemoryFound, nil)
		return
	}
	s.log.Debug("reciting memory", "timestamp", best.Timestamp, "score", best.Score)
	s.speak(DialogReciteMemory, map[string]string{"memory": text})
}

// HandleRoboticsLaws serves the keyword intent with a canned recitation.
func (s *Skill) HandleRoboticsLaws(ctx context.Context, msg host.Message) {
	s.speak(DialogRobotics, nil)
}

// Ready reports whether the full recall path is servable.
func (s *Skill) Ready() bool {
	return s.retriever.Ready()
}

// Retriever exposes the underlying retriever for direct, non-spoken use.
func (s *Skill) Retriever() *memory.Retriever {
	return s.retriever
}

// Initialize re-merges the default settings. Safe to call repeatedly.
func (s *Skill) Initialize() error {
	return s.settings.Merge(DefaultSettings(), true)
}

// Stop reports whether any in-flight activity was interrupted. Retrieval
// is synchronous, so there is never anything to stop.
func (s *Skill) Stop() bool {
	return false
}

// speak renders a dialog, logging delivery failures.
func (s *Skill) speak(name string, data map[string]string) {
	if err := s.dialog.SpeakDialog(name, data); err != nil {
		s.log.Error("failed to speak dialog", "dialog", name, "error", err)
	}
}

// RuntimeRequirements declares that the skill works fully offline: no
// internet, network, or GUI connectivity is needed before load or at
// runtime.
func RuntimeRequirements() host.RuntimeRequirements {
	return host.RuntimeRequirements{
		NoInternetFallback: true,
		NoNetworkFallback:  true,
		NoGUIFallback:      true,
	}
}
