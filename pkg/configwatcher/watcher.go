package configwatcher

import (
	"context"
	"math_missions_backend/internal/config"
	"math_missions_backend/pkg/logger"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader 配置文件变更后收到新配置
type Reloader func(cfg *config.Config)

type Watcher struct {
	path     string
	debounce time.Duration

	mu        sync.Mutex
	reloaders []Reloader
}

func New(configPath string) *Watcher {
	return &Watcher{path: configPath, debounce: time.Second}
}

func (w *Watcher) OnReload(r Reloader) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloaders = append(w.reloaders, r)
}

// Run 阻塞直到 ctx 结束；监听目录而非文件，编辑器的原子替换也能触发
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// 防抖
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			w.reload(filepath.Dir(absPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(dir string) {
	newCfg, err := config.LoadConfig(dir)
	if err != nil {
		logger.Log.Error("Failed to reload config", zap.Error(err))
		return
	}

	w.mu.Lock()
	reloaders := append([]Reloader(nil), w.reloaders...)
	w.mu.Unlock()

	logger.Log.Info("Config reloaded", zap.String("path", w.path))
	for _, r := range reloaders {
		r(newCfg)
	}
}
