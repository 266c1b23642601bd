package speech

import "fmt"

// Volume is a speech volume from 0 to 100.
type Volume int

const (
	MinVolume     Volume = 0
	MaxVolume     Volume = 100
	DefaultVolume Volume = MaxVolume
	volumeStep    Volume = 10
)

// ParseVolume validates v.
func ParseVolume(v int) (Volume, error) {
	if v < int(MinVolume) || v > int(MaxVolume) {
		return 0, fmt.Errorf("volume must be between %d and %d, got %d", MinVolume, MaxVolume, v)
	}
	return Volume(v), nil
}

// Level returns v scaled to [0, 1] for the player.
func (v Volume) Level() float64 {
	return float64(v) / float64(MaxVolume)
}

// Up returns v raised by one step, capped at MaxVolume.
func (v Volume) Up() Volume {
	return min(v+volumeStep, MaxVolume)
}

// Down returns v lowered by one step, floored at MinVolume.
func (v Volume) Down() Volume {
	return max(v-volumeStep, MinVolume)
}

// VolumeIcon is the indicator shown next to the volume control.
type VolumeIcon int

const (
	IconMuted VolumeIcon = iota
	IconLow
	IconMedium
	IconHigh
)

// Icon picks the indicator for v: muted at 0, then low up to 33, medium up
// to 66, high above.
func (v Volume) Icon() VolumeIcon {
	switch {
	case v <= 0:
		return IconMuted
	case v <= 33:
		return IconLow
	case v <= 66:
		return IconMedium
	default:
		return IconHigh
	}
}

func (i VolumeIcon) String() string {
	switch i {
	case IconMuted:
		return "🔇"
	case IconLow:
		return "🔈"
	case IconMedium:
		return "🔉"
	default:
		return "🔊"
	}
}
