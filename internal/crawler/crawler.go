package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"modbridge/internal/extractor"
	"modbridge/internal/ir"
)

// Crawler scans a mod source tree for Java files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *zap.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", ".gradle", ".idea", "build", "out", "run", "node_modules"},
		logger:    logger,
	}
}

// ScanProject walks the root directory and analyses every .java file.
// It uses a callback to stream one IR per file, preventing large memory buildup.
// Files that fail analysis are logged and skipped.
func (c *Crawler) ScanProject(root string, onUnit func(path string, unit *ir.IR)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}

		unit, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			c.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}
		onUnit(path, unit)
		return nil
	})
}
