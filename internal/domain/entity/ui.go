package entity

// UIState флаги видимости элементов интерфейса и текущий текст предсказания
type UIState struct {
	LoadingVisible     bool   `json:"loading_visible"`
	WebcamPanelVisible bool   `json:"webcam_panel_visible"`
	UploadPanelVisible bool   `json:"upload_panel_visible"`
	StartButtonVisible bool   `json:"start_button_visible"`
	StopButtonVisible  bool   `json:"stop_button_visible"`
	PredictionText     string `json:"prediction_text"`
}

// NewUIState создаёт начальное состояние: камера выключена, панели скрыты.
func NewUIState() UIState {
	return UIState{StartButtonVisible: true}
}

// ShowLoading показывает индикатор загрузки
func (s *UIState) ShowLoading() {
	s.LoadingVisible = true
}

// HideLoading скрывает индикатор загрузки
func (s *UIState) HideLoading() {
	s.LoadingVisible = false
}

// ShowWebcamPanel показывает панель камеры и скрывает загруженное изображение.
func (s *UIState) ShowWebcamPanel() {
	s.WebcamPanelVisible = true
	s.UploadPanelVisible = false
}

// ShowUploadPanel показывает загруженное изображение и скрывает панель камеры.
func (s *UIState) ShowUploadPanel() {
	s.UploadPanelVisible = true
	s.WebcamPanelVisible = false
}

// HideUploadPanel скрывает загруженное изображение
func (s *UIState) HideUploadPanel() {
	s.UploadPanelVisible = false
}

// ClearWebcamPanel убирает кадр камеры с экрана
func (s *UIState) ClearWebcamPanel() {
	s.WebcamPanelVisible = false
}

// SetCaptureRunning переключает кнопки старт/стоп по состоянию камеры.
// Видна ровно одна из двух.
func (s *UIState) SetCaptureRunning(running bool) {
	s.StartButtonVisible = !running
	s.StopButtonVisible = running
}

// SetPrediction обновляет текст предсказания
func (s *UIState) SetPrediction(text string) {
	s.PredictionText = text
}
