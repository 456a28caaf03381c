package viewer

import (
	"strings"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/source"
)

// chooseFile shows a native open dialog and calls open with the choice.
// Runs on its own goroutine so the render loop keeps drawing.
func chooseFile(open func(path string)) {
	go func() {
		exts := make([]string, 0, len(source.Extensions))
		for _, e := range source.Extensions {
			exts = append(exts, strings.TrimPrefix(e, "."))
		}
		filename, err := dialog.File().
			Filter("Meshes", exts...).
			Filter("All Files", "*").
			Title("Open Mesh").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		open(filename)
	}()
}
