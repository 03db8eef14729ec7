package drivers

// AdcChannelCount is the number of single-ended inputs on the converter.
const AdcChannelCount = 4

// AdcDriver is the transport to the analog-to-digital converter. The
// converter is shared by every analog input, so implementations must make
// ReadChannel atomic: selecting the channel and reading the conversion
// result form one critical section.
type AdcDriver interface {
	Setup() error
	ReadChannel(channel uint8) (int32, error)
	Close() error
	String() string
	IsReady() bool
}
