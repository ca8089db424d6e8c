package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUIState_Defaults(t *testing.T) {
	s := NewUIState()
	require.True(t, s.StartButtonVisible)
	require.False(t, s.StopButtonVisible)
	require.False(t, s.LoadingVisible)
	require.False(t, s.WebcamPanelVisible)
	require.False(t, s.UploadPanelVisible)
	require.Empty(t, s.PredictionText)
}

func TestUIState_PanelsAreExclusive(t *testing.T) {
	s := NewUIState()

	s.ShowWebcamPanel()
	require.True(t, s.WebcamPanelVisible)
	require.False(t, s.UploadPanelVisible)

	s.ShowUploadPanel()
	require.True(t, s.UploadPanelVisible)
	require.False(t, s.WebcamPanelVisible)
}

func TestUIState_SetCaptureRunning(t *testing.T) {
	s := NewUIState()

	s.SetCaptureRunning(true)
	require.False(t, s.StartButtonVisible)
	require.True(t, s.StopButtonVisible)

	s.SetCaptureRunning(false)
	require.True(t, s.StartButtonVisible)
	require.False(t, s.StopButtonVisible)
}
