package entity

import (
	"context"

	"github.com/aymanbagabas/go-udiff"
	"github.com/sirupsen/logrus"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/filestore"
	"github.com/jingkaihe/opencfg/pkg/frontmatter"
	"github.com/jingkaihe/opencfg/pkg/jsonc"
	"github.com/jingkaihe/opencfg/pkg/logger"
)

// writer persists records. Every overwrite of an existing file is preceded by
// a copy of its current content to the single backup location.
type writer struct {
	store filestore.Store
}

func (w *writer) writeJSON(ctx context.Context, path string, tree map[string]any) error {
	data, err := jsonc.Marshal(tree)
	if err != nil {
		return err
	}
	return w.write(ctx, path, data)
}

func (w *writer) writeMarkdown(ctx context.Context, path string, doc *frontmatter.Document) error {
	content, err := doc.Render()
	if err != nil {
		return err
	}
	return w.write(ctx, path, []byte(content))
}

func (w *writer) writePlain(ctx context.Context, path, content string) error {
	return w.write(ctx, path, []byte(content))
}

func (w *writer) write(ctx context.Context, path string, data []byte) error {
	log := logger.G(ctx).WithField("path", path)

	var previous []byte
	if w.store.Exists(path) {
		var err error
		if previous, err = w.store.Read(path); err != nil {
			return err
		}

		backup := config.BackupPath(path)
		if err := w.store.Copy(path, backup); err != nil {
			return err
		}
		log.WithField("backup", backup).Debug("Created backup")
	}

	if err := w.store.Write(path, data); err != nil {
		return err
	}

	if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		log.WithField("diff", udiff.Unified(path, path, string(previous), string(data))).Trace("File diff")
	}
	log.Info("Wrote file")
	return nil
}

func (w *writer) remove(ctx context.Context, path string) error {
	if err := w.store.Remove(path); err != nil {
		return err
	}
	logger.G(ctx).WithField("path", path).Info("Removed file")
	return nil
}
