package app

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"webcam-classifier/internal/domain/entity"
)

func TestCaptureService_PreferredMode(t *testing.T) {
	log, _ := newTestLogger()
	camera := newFakeCamera()
	svc := NewCaptureService(camera, log)

	session, started, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.True(t, started)
	require.Equal(t, entity.ModePreferred, session.Mode)
	require.Equal(t, entity.CaptureRunning, svc.State())
	require.Equal(t, []entity.DeviceMode{entity.ModePreferred}, camera.attempts())
}

func TestCaptureService_FallbackToDefault(t *testing.T) {
	log, hook := newTestLogger()
	camera := newFakeCamera()
	camera.errs[entity.ModePreferred] = errors.New("no rear camera")
	svc := NewCaptureService(camera, log)

	session, started, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.True(t, started)
	require.Equal(t, entity.ModeDefault, session.Mode)
	require.Equal(t, []entity.DeviceMode{entity.ModePreferred, entity.ModeDefault}, camera.attempts())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestCaptureService_BothModesDenied(t *testing.T) {
	log, _ := newTestLogger()
	camera := newFakeCamera()
	camera.errs[entity.ModePreferred] = fs.ErrPermission
	camera.errs[entity.ModeDefault] = &fs.PathError{Op: "open", Path: "/dev/video0", Err: fs.ErrPermission}
	svc := NewCaptureService(camera, log)

	session, started, err := svc.Start(context.Background())
	require.Error(t, err)
	require.False(t, started)
	require.Nil(t, session)
	require.Nil(t, svc.Session())
	require.Equal(t, entity.CaptureIdle, svc.State())

	cause, ok := entity.CaptureCauseOf(err)
	require.True(t, ok)
	require.Equal(t, entity.CausePermissionDenied, cause)
	require.Len(t, camera.attempts(), 2)
}

func TestCaptureService_StartIsIdempotent(t *testing.T) {
	log, _ := newTestLogger()
	camera := newFakeCamera()
	svc := NewCaptureService(camera, log)

	first, started, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.True(t, started)

	second, started, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.False(t, started)
	require.Same(t, first, second)
	require.Len(t, camera.attempts(), 1)
}

func TestCaptureService_StopIsIdempotent(t *testing.T) {
	log, _ := newTestLogger()
	camera := newFakeCamera()
	camera.source.closeErr = errors.New("handle already released")
	svc := NewCaptureService(camera, log)

	require.NotPanics(t, svc.Stop)

	session, _, err := svc.Start(context.Background())
	require.NoError(t, err)

	svc.Stop()
	svc.Stop()
	require.False(t, session.Running())
	require.Equal(t, entity.CaptureIdle, svc.State())
	require.Equal(t, int32(1), camera.source.closed.Load())
	require.Nil(t, svc.Frame())
}

func TestCaptureService_Update(t *testing.T) {
	log, _ := newTestLogger()
	camera := newFakeCamera()
	svc := NewCaptureService(camera, log)

	frame, err := svc.Update()
	require.NoError(t, err)
	require.Nil(t, frame)

	_, _, err = svc.Start(context.Background())
	require.NoError(t, err)

	frame, err = svc.Update()
	require.NoError(t, err)
	require.NotNil(t, frame)
	require.Equal(t, frame, svc.Frame())

	camera.source.readErr = errors.New("device gone")
	_, err = svc.Update()
	require.Error(t, err)
}

func TestCaptureService_StopDuringNegotiation(t *testing.T) {
	log, _ := newTestLogger()
	camera := newFakeCamera()
	camera.gate = make(chan struct{})
	svc := NewCaptureService(camera, log)

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Start(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return svc.State() == entity.CaptureNegotiating
	}, time.Second, 5*time.Millisecond)

	svc.Stop()
	close(camera.gate)

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, entity.CaptureIdle, svc.State())
	require.Equal(t, int32(1), camera.source.closed.Load())
}

func TestClassifyCaptureError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want entity.CaptureCause
	}{
		{"permission", &fs.PathError{Op: "open", Path: "/dev/video0", Err: fs.ErrPermission}, entity.CausePermissionDenied},
		{"missing", &fs.PathError{Op: "stat", Path: "/dev/video9", Err: fs.ErrNotExist}, entity.CauseDeviceNotFound},
		{"other", errors.New("device busy"), entity.CauseUnknown},
		{"already classified", entity.NewCaptureError(entity.CauseDeviceNotFound, nil), entity.CauseDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyCaptureError(tt.err).Cause)
		})
	}
}
