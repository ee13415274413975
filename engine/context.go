package engine

import (
	"context"

	"github.com/spf13/afero"
)

type contextKey struct{ key string }

var (
	workDirKey = &contextKey{"workdir"}
	fsKey      = &contextKey{"fs"}
)

// WithWorkDir saves the directory relative script paths resolve against.
func WithWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workDirKey, dir)
}

// WorkDir returns the directory saved by WithWorkDir, or the empty string.
func WorkDir(ctx context.Context) string {
	dir, _ := ctx.Value(workDirKey).(string)
	return dir
}

// WithFs saves the filesystem engines should read fixture data from.
func WithFs(ctx context.Context, fs afero.Fs) context.Context {
	return context.WithValue(ctx, fsKey, fs)
}

// Fs returns the filesystem saved by WithFs, falling back to the OS filesystem.
func Fs(ctx context.Context) afero.Fs {
	if fs, ok := ctx.Value(fsKey).(afero.Fs); ok && fs != nil {
		return fs
	}

	return afero.NewOsFs()
}
