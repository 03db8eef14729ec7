package drivers

import "github.com/pkg/errors"

const mockAdcDriverName = "mock_adc"

// MockAdcDriver serves canned raw readings per channel. Err, when set,
// is returned by every read.
type MockAdcDriver struct {
	Raw [AdcChannelCount]int32
	Err error

	ReadCalls []uint8

	ready bool
}

func (ma *MockAdcDriver) Setup() error {
	ma.ready = true
	return nil
}

func (ma *MockAdcDriver) ReadChannel(channel uint8) (int32, error) {
	if channel >= AdcChannelCount {
		return 0, errors.Errorf("mock adc channel %d out of range", channel)
	}
	ma.ReadCalls = append(ma.ReadCalls, channel)
	if ma.Err != nil {
		return 0, ma.Err
	}
	return ma.Raw[channel], nil
}

func (ma *MockAdcDriver) String() string {
	return mockAdcDriverName
}

func (ma *MockAdcDriver) IsReady() bool {
	return ma.ready
}

func (ma *MockAdcDriver) Close() error {
	ma.ready = false
	return nil
}
