package mysql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/realmauth/pkg/slogx"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewGormLogger(base, 50*time.Millisecond)
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("failures at error", func(t *testing.T) {
		buf.Reset()
		l.Trace(ctx, time.Now(), fc, errors.New("boom"))
		require.Contains(t, buf.String(), "level=ERROR")
		require.Contains(t, buf.String(), "boom")
	})

	t.Run("record not found is quiet", func(t *testing.T) {
		buf.Reset()
		l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
		require.NotContains(t, buf.String(), "level=ERROR")
	})

	t.Run("slow at warn", func(t *testing.T) {
		buf.Reset()
		l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
		require.Contains(t, buf.String(), "slow sql")
	})

	t.Run("silent mode", func(t *testing.T) {
		buf.Reset()
		l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
		require.Empty(t, buf.String())
	})

	t.Run("request logger wins", func(t *testing.T) {
		var reqBuf bytes.Buffer
		reqLogger := slog.New(slog.NewTextHandler(&reqBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		buf.Reset()
		l.Trace(slogx.WithContext(ctx, reqLogger), time.Now(), fc, nil)
		require.Empty(t, buf.String())
		require.Contains(t, reqBuf.String(), "SELECT 1")
	})
}
