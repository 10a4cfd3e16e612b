package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sbinet/npyio"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/meepi-labs/neartotalrecall/host"
	"github.com/meepi-labs/neartotalrecall/host/busclient"
	"github.com/meepi-labs/neartotalrecall/logging"
	"github.com/meepi-labs/neartotalrecall/memory"
	"github.com/meepi-labs/neartotalrecall/memory/embedder/minilm"
	"github.com/meepi-labs/neartotalrecall/memory/embedder/mock"
	"github.com/meepi-labs/neartotalrecall/skill"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	root := &cobra.Command{
		Use:   "ntr",
		Short: "Near Total Recall memory skill",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")

	root.AddCommand(runCmd())
	root.AddCommand(embedCmd())
	root.AddCommand(queryCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		busURL       string
		settingsPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect the skill to the assistant message bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			settings, err := host.OpenSettings(resolveSettingsPath(settingsPath))
			if err != nil {
				return fmt.Errorf("open settings: %w", err)
			}

			dialCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			client, err := busclient.Dial(dialCtx, busclient.Config{
				URL:          busURL,
				SkillID:      skill.SkillID,
				Requirements: skill.RuntimeRequirements(),
				Logger:       log,
			})
			cancel()
			if err != nil {
				return err
			}
			defer client.Close()

			s, err := skill.New(skill.Deps{Settings: settings, Dialog: client, Logger: log})
			if err != nil {
				return err
			}
			if err := s.Register(client); err != nil {
				return err
			}

			log.Info("skill connected", "bus", busURL, "skill_id", skill.SkillID, "ready", s.Ready())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				log.Info("shutting down", "signal", sig.String())
				return nil
			case <-client.Done():
				return errors.New("bus connection lost")
			}
		},
	}

	cmd.Flags().StringVar(&busURL, "bus", "ws://127.0.0.1:8181/core", "message bus websocket URL")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings file (default: ~/.config/neartotalrecall/settings.json)")
	return cmd
}

func embedCmd() *cobra.Command {
	var (
		inputPath      string
		cleanedPath    string
		embeddingsPath string
		modelName      string
		modelsPath     string
		libraryPath    string
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Build the cleaned table and embedding matrix from the original memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := memory.LoadTable(inputPath)
			if err != nil {
				return fmt.Errorf("load original table: %w", err)
			}
			if !original.HasColumn(memory.ColumnTimestamp) || !original.HasColumn(memory.ColumnDescription) {
				return fmt.Errorf("%s needs %s and %s columns", inputPath, memory.ColumnTimestamp, memory.ColumnDescription)
			}
			if original.Len() == 0 {
				return fmt.Errorf("%s has no memory rows", inputPath)
			}

			embedder, err := newEmbedder(modelName, modelsPath, libraryPath)
			if err != nil {
				return fmt.Errorf("load model %s: %w", modelName, err)
			}

			records := [][]string{{memory.ColumnTimestamp, memory.ColumnDescription}}
			dense := mat.NewDense(original.Len(), embedder.Dimensions(), nil)
			for i := 0; i < original.Len(); i++ {
				timestamp, _ := original.Cell(i, memory.ColumnTimestamp)
				text, _ := original.Cell(i, memory.ColumnDescription)
				cleaned := memory.CleanText(text)
				records = append(records, []string{timestamp, cleaned})

				vec, err := embedder.Embed(cmd.Context(), cleaned)
				if err != nil {
					return fmt.Errorf("embed row %d: %w", i, err)
				}
				for j, v := range vec {
					dense.Set(i, j, float64(v))
				}
			}

			if err := writeCSVFile(cleanedPath, records); err != nil {
				return fmt.Errorf("write cleaned table: %w", err)
			}
			if err := writeMatrixFile(embeddingsPath, dense); err != nil {
				return fmt.Errorf("write embedding matrix: %w", err)
			}

			fmt.Printf("embedded %d memories (%d dims) into %s\n", original.Len(), embedder.Dimensions(), embeddingsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "original memories CSV")
	cmd.Flags().StringVar(&cleanedPath, "cleaned", "cleaned_memories.csv", "cleaned table output path")
	cmd.Flags().StringVar(&embeddingsPath, "embeddings", "memory_embeddings.npy", "embedding matrix output path")
	cmd.Flags().StringVar(&modelName, "model", "all-MiniLM-L6-v2", "model name, or \"mock\" for the hash embedder")
	cmd.Flags().StringVar(&modelsPath, "models-path", "models", "directory holding unpacked models")
	cmd.Flags().StringVar(&libraryPath, "onnx-lib", "", "path to the onnxruntime shared library")
	cmd.MarkFlagRequired("input")
	return cmd
}

func queryCmd() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run one recall query against the local artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			settings, err := host.OpenSettings(resolveSettingsPath(settingsPath))
			if err != nil {
				return fmt.Errorf("open settings: %w", err)
			}
			s, err := skill.New(skill.Deps{Settings: settings, Dialog: consoleDialog{}, Logger: log})
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			matches, err := s.Retriever().FindClosest(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("no memory found")
				return nil
			}
			for i, m := range matches {
				fmt.Printf("%d. score=%.4f  %s  %s\n", i+1, m.Score, m.Timestamp, m.Record[memory.ColumnDescription])
			}
			if full, ok := s.Retriever().ResolveFull(matches[0].Timestamp); ok {
				fmt.Printf("\nbest memory: %s\n", full)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings file (default: ~/.config/neartotalrecall/settings.json)")
	return cmd
}

// consoleDialog prints dialog output for local, non-spoken use.
type consoleDialog struct{}

func (consoleDialog) SpeakDialog(name string, data map[string]string) error {
	if len(data) > 0 {
		fmt.Printf("[%s] %v\n", name, data)
		return nil
	}
	fmt.Printf("[%s]\n", name)
	return nil
}

func newLogger() logging.Logger {
	return logging.New(&logging.Config{Level: logLevel, Format: logFormat})
}

func newEmbedder(model, modelsPath, libraryPath string) (memory.Embedder, error) {
	if model == skill.ModelMock {
		return mock.New(), nil
	}
	base := filepath.Join(modelsPath, model)
	emb, err := minilm.New(minilm.Config{
		ModelPath:     filepath.Join(base, "model.onnx"),
		TokenizerPath: filepath.Join(base, "tokenizer.json"),
		LibraryPath:   libraryPath,
	})
	if err != nil {
		return nil, err
	}
	return emb, nil
}

func resolveSettingsPath(path string) string {
	if path != "" {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "neartotalrecall", "settings.json")
	}
	return "settings.json"
}

func writeCSVFile(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeMatrixFile(path string, dense *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npyio.Write(f, dense); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
