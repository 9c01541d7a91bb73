package controller

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// Target identifies one controller and the credentials to talk to it.
type Target struct {
	ID       string
	IP       string
	Password string
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.ID, t.IP)
}

// Controller reads and writes parameters of one device of family P.
type Controller[P protocol.ParameterID] struct {
	client *transport.Client[P]
	target Target
}

// New creates a controller for target using client.
func New[P protocol.ParameterID](client *transport.Client[P], target Target) *Controller[P] {
	return &Controller[P]{client: client, target: target}
}

// Target returns the controller's device.
func (c *Controller[P]) Target() Target { return c.target }

// Read asks the device for params and returns its reply.
func (c *Controller[P]) Read(ctx context.Context, params ...P) (*protocol.Packet[P], error) {
	pkt := protocol.NewReadPacket(c.target.ID, c.target.Password, params...)
	return c.roundTrip(ctx, pkt)
}

// Write sets parameters without waiting; devices do not acknowledge WRITE.
func (c *Controller[P]) Write(ctx context.Context, entries ...protocol.DataEntry[P]) error {
	pkt := protocol.NewPacket(c.target.ID, c.target.Password, protocol.FunctionWrite, entries...)
	if err := c.client.SendOnly(ctx, pkt, c.target.IP); err != nil {
		return c.wrapSendError(err)
	}
	logging.Info("Wrote parameters",
		zap.String("device", c.target.String()),
		zap.Stringers("params", pkt.Parameters()),
	)
	return nil
}

// WriteRead sets parameters and returns the values the device reports back.
func (c *Controller[P]) WriteRead(ctx context.Context, entries ...protocol.DataEntry[P]) (*protocol.Packet[P], error) {
	pkt := protocol.NewPacket(c.target.ID, c.target.Password, protocol.FunctionWriteRead, entries...)
	return c.roundTrip(ctx, pkt)
}

// Step increments (up) or decrements a parameter on the device and returns
// the new value.
func (c *Controller[P]) Step(ctx context.Context, param P, up bool) (protocol.DataEntry[P], error) {
	fn := protocol.FunctionDecRead
	if up {
		fn = protocol.FunctionIncRead
	}
	pkt := protocol.NewPacket(c.target.ID, c.target.Password, fn, protocol.Read(param))
	resp, err := c.roundTrip(ctx, pkt)
	if err != nil {
		return protocol.DataEntry[P]{}, err
	}
	return c.require(resp, param)
}

// ReadOne reads a single parameter.
func (c *Controller[P]) ReadOne(ctx context.Context, param P) (protocol.DataEntry[P], error) {
	resp, err := c.Read(ctx, param)
	if err != nil {
		return protocol.DataEntry[P]{}, err
	}
	return c.require(resp, param)
}

func (c *Controller[P]) roundTrip(ctx context.Context, pkt *protocol.Packet[P]) (*protocol.Packet[P], error) {
	res, err := c.client.Send(ctx, pkt, c.target.IP)
	if err != nil {
		return nil, c.wrapSendError(err)
	}
	if !res.Matched() {
		if res.LastDiscard != nil {
			return nil, NewDecodeError(c.target, res.Discarded, res.LastDiscard)
		}
		return nil, NewNoResponseError(c.target)
	}
	logging.Debug("Device replied",
		zap.String("device", c.target.String()),
		zap.String("ip", res.IP),
		zap.Int("entries", len(res.Packet.Entries)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res.Packet, nil
}

func (c *Controller[P]) require(pkt *protocol.Packet[P], param P) (protocol.DataEntry[P], error) {
	e, ok := pkt.Entry(param)
	if !ok || e.Unsupported || !e.HasValue() {
		return protocol.DataEntry[P]{}, NewMissingParameterError(c.target, param.String())
	}
	return e, nil
}

func (c *Controller[P]) wrapSendError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, protocol.ErrUnknownParameter) || errors.Is(err, protocol.ErrValueSize) {
		return &DeviceError{Type: ErrTypeValidation, Message: "invalid request", DeviceID: c.target.ID, DeviceIP: c.target.IP, Err: err}
	}
	return ClassifyNetworkError(err, c.target)
}
