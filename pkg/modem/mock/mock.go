// ABOUTME: Scripted modem decoder for tests
// ABOUTME: Releases queued messages after a set number of Consume calls and records every call
package mock

import (
	"sync"

	"github.com/heywifi/heywifi-go/pkg/modem"
)

// Message is released by Receive once the decoder has consumed After blocks
type Message struct {
	After int
	Data  []byte
}

// Decoder is a modem.Decoder driven by a message script
type Decoder struct {
	mu sync.Mutex

	Messages []Message
	CloseErr error

	// OnClose runs inside Close, before it returns
	OnClose func()

	Profile    modem.Profile
	SampleRate int

	ConsumeCount int
	Samples      int
	ReceiveCount int
	CloseCount   int
	LastBlock    []float32
}

// Factory returns a modem.Factory that hands out d, recording its arguments.
// A non-nil err makes construction fail instead.
func Factory(d *Decoder, err error) modem.Factory {
	return func(profile modem.Profile, sampleRate int) (modem.Decoder, error) {
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.Profile = profile
		d.SampleRate = sampleRate
		d.mu.Unlock()
		return d, nil
	}
}

func (d *Decoder) Consume(samples []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ConsumeCount++
	d.Samples += len(samples)
	d.LastBlock = append(d.LastBlock[:0], samples...)
}

func (d *Decoder) Receive(buf []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ReceiveCount++
	if len(d.Messages) == 0 || d.Messages[0].After > d.ConsumeCount {
		return -1
	}
	msg := d.Messages[0]
	d.Messages = d.Messages[1:]
	return copy(buf, msg.Data)
}

func (d *Decoder) Close() error {
	d.mu.Lock()
	d.CloseCount++
	onClose, err := d.OnClose, d.CloseErr
	d.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return err
}

// Closes reports how many times Close ran
func (d *Decoder) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.CloseCount
}
