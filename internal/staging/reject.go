package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/jobs-etl/constants"
)

// Rejecter applies the reject policy to records a stage cannot use.
// Rejected records are never retried automatically.
type Rejecter struct {
	Policy constants.RejectPolicy
	Dir    string
	Logger *slog.Logger
}

func NewRejecter(policy constants.RejectPolicy, dir string, logger *slog.Logger) *Rejecter {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = constants.RejectDrop
	}
	return &Rejecter{Policy: policy, Dir: dir, Logger: logger}
}

// Reject logs the rejection and, under the quarantine policy, copies content
// into Dir/<stage>/<name> next to a <name>.reason file.
func (r *Rejecter) Reject(stage constants.Stage, path string, content []byte, reason error) error {
	r.Logger.Warn("record rejected",
		"stage", stage,
		"file", path,
		"policy", r.Policy,
		"reason", reason,
	)
	if r.Policy != constants.RejectQuarantine {
		return nil
	}

	dir := filepath.Join(r.Dir, string(stage))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("quarantine dir: %w", err)
	}
	name := filepath.Base(path)
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return fmt.Errorf("quarantine copy: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".reason"), []byte(reason.Error()+"\n"), 0o644); err != nil {
		return fmt.Errorf("quarantine reason: %w", err)
	}
	return nil
}
