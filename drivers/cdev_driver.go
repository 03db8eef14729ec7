package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

const cdevDriverName = "gpiocdev"

const defaultCdevChip = "gpiochip0"
const defaultCdevConsumer = "hatkit"

// CdevIO drives SoC pins through the character device interface, the
// kernel-preferred replacement for memory mapped access. Line offsets
// equal BCM pin numbers on the Raspberry Pi.
type CdevIO struct {
	Chip     string
	Consumer string

	InvertInputs  bool
	InvertOutputs bool
	PullUpInputs  bool

	chip    *gpiocdev.Chip
	inputs  map[uint16]*CdevInput
	outputs map[uint16]*CdevOutput
	isReady bool
}

type CdevInput struct {
	line   *gpiocdev.Line
	invert bool
}

type CdevOutput struct {
	line   *gpiocdev.Line
	invert bool
}

func (ci *CdevInput) GetState() (bool, error) {
	value, err := ci.line.Value()
	if err != nil {
		return false, errors.Wrap(err, "failed to read gpiocdev line")
	}

	state := value != 0
	if ci.invert {
		state = !state
	}
	return state, nil
}

func (co *CdevOutput) Set(state bool) error {
	if co.invert {
		state = !state
	}

	value := 0
	if state {
		value = 1
	}
	return errors.Wrap(co.line.SetValue(value), "failed to set gpiocdev line")
}

func (co *CdevOutput) GetState() (bool, error) {
	value, err := co.line.Value()
	if err != nil {
		return false, errors.Wrap(err, "failed to read gpiocdev line")
	}

	state := value != 0
	if co.invert {
		state = !state
	}
	return state, nil
}

func (cd *CdevIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	chipName := cd.Chip
	if len(chipName) == 0 {
		chipName = defaultCdevChip
	}
	consumer := cd.Consumer
	if len(consumer) == 0 {
		consumer = defaultCdevConsumer
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return errors.Wrapf(err, "failed to open gpio chip %s", chipName)
	}
	cd.chip = chip
	cd.inputs = make(map[uint16]*CdevInput)
	cd.outputs = make(map[uint16]*CdevOutput)

	bias := gpiocdev.WithPullDown
	if cd.PullUpInputs {
		bias = gpiocdev.WithPullUp
	}

	for _, inPin := range inputs {
		line, err := chip.RequestLine(int(inPin),
			gpiocdev.AsInput,
			bias,
			gpiocdev.WithConsumer(consumer))
		if err != nil {
			return errors.Wrapf(err, "failed to request line %d as input", inPin)
		}
		cd.inputs[inPin] = &CdevInput{line: line, invert: cd.InvertInputs}
	}

	for _, outPin := range outputs {
		line, err := chip.RequestLine(int(outPin),
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer(consumer))
		if err != nil {
			return errors.Wrapf(err, "failed to request line %d as output", outPin)
		}
		cd.outputs[outPin] = &CdevOutput{line: line, invert: cd.InvertOutputs}
	}

	cd.isReady = true
	return nil
}

func (cd *CdevIO) String() string {
	return cdevDriverName
}

func (cd *CdevIO) IsReady() bool {
	return cd.isReady
}

func (cd *CdevIO) Close() error {
	cd.isReady = false
	for _, output := range cd.outputs {
		output.Set(false)
		output.line.Close()
	}
	for _, input := range cd.inputs {
		input.line.Close()
	}
	if cd.chip == nil {
		return nil
	}
	return cd.chip.Close()
}

func (cd *CdevIO) GetInput(id uint16) (DigitalInput, error) {
	input, found := cd.inputs[id]
	if !found {
		return nil, errors.Errorf("CdevIO Input (id: %d) not found", id)
	}
	return input, nil
}

func (cd *CdevIO) GetOutput(id uint16) (DigitalOutput, error) {
	output, found := cd.outputs[id]
	if !found {
		return nil, errors.Errorf("CdevIO Output (id: %d) not found", id)
	}
	return output, nil
}

func (cd *CdevIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for pin := range cd.inputs {
		inputs = append(inputs, pin)
	}
	for pin := range cd.outputs {
		outputs = append(outputs, pin)
	}

	return
}
