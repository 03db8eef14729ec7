package drivers

// LedChannelCount is the number of PWM channels the LED driver exposes.
// All known Automation HAT revisions carry an SN3218 with 18 channels.
const LedChannelCount = 18

// LedDriver is the transport to a multi-channel PWM LED driver chip.
// The chip is programmed as a whole: callers first enable the channels
// they want lit, then push the full brightness buffer. Both calls belong
// to one logical flush and are expected to run back to back.
type LedDriver interface {
	Setup() error
	Enable(mask uint32) error
	Output(values [LedChannelCount]byte) error
	Close() error
	String() string
	IsReady() bool
}
