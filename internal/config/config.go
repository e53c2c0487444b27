package config

import "time"

const (
	WindowWidth  = 1024
	WindowHeight = 512

	VisualRingSize  = 8192
	SmoothingFactor = 0.6

	// Button dimensions
	ButtonWidth  = 120
	ButtonHeight = 40
	ButtonX      = 20
	ButtonY      = 50

	// Section cards along the bottom edge
	CardWidth  = 130
	CardHeight = 44
	CardGap    = 12
	CardY      = WindowHeight - CardHeight - 20

	// Visualization parameters
	CircleCount     = 8
	WaveCount       = 12
	ParticleCount   = 50
	RotationSpeed   = 0.02
	ColorShiftSpeed = 0.01

	// Audio analysis
	AudioBands       = 64
	AudioWindow      = 2048
	BeatThreshold    = 1.35 // energy over its running average
	BeatCooldown     = 120 * time.Millisecond
	BeatPhasePerBeat = 0.25

	// Engine pacing
	FrameInterval  = time.Second / 60
	CascadeDamping = 6.0

	// TransitionMultiplier scales the 1.5s section cross-fade.
	TransitionMultiplier = 1.0
)
