// Package embedded содержит иконки трея.
package embedded

import (
	_ "embed"
)

// IconIdle - ожидание (серая).
//
//go:embed icon_idle.png
var IconIdle []byte

// IconRecording - идёт запись (красная).
//
//go:embed icon_recording.png
var IconRecording []byte

// IconProcessing - форма отправляется на сервер (оранжевая).
//
//go:embed icon_processing.png
var IconProcessing []byte
