package drivers

const mockLedDriverName = "mock_led"

// MockLedDriver records every enable and output transaction, for tests
// and for running the composition layer off-board. Set FailEnable or
// FailOutput to make the corresponding call return that error.
type MockLedDriver struct {
	FailEnable error
	FailOutput error

	EnableCalls []uint32
	OutputCalls [][LedChannelCount]byte

	ready bool
}

func (ml *MockLedDriver) Setup() error {
	ml.ready = true
	return nil
}

func (ml *MockLedDriver) Enable(mask uint32) error {
	if ml.FailEnable != nil {
		return ml.FailEnable
	}
	ml.EnableCalls = append(ml.EnableCalls, mask)
	return nil
}

func (ml *MockLedDriver) Output(values [LedChannelCount]byte) error {
	if ml.FailOutput != nil {
		return ml.FailOutput
	}
	ml.OutputCalls = append(ml.OutputCalls, values)
	return nil
}

// LastEnable returns the most recent enable mask, zero when none happened.
func (ml *MockLedDriver) LastEnable() uint32 {
	if len(ml.EnableCalls) == 0 {
		return 0
	}
	return ml.EnableCalls[len(ml.EnableCalls)-1]
}

// LastOutput returns the most recent output buffer, zeroed when none happened.
func (ml *MockLedDriver) LastOutput() (values [LedChannelCount]byte) {
	if len(ml.OutputCalls) == 0 {
		return
	}
	return ml.OutputCalls[len(ml.OutputCalls)-1]
}

func (ml *MockLedDriver) String() string {
	return mockLedDriverName
}

func (ml *MockLedDriver) IsReady() bool {
	return ml.ready
}

func (ml *MockLedDriver) Close() error {
	ml.ready = false
	return nil
}
