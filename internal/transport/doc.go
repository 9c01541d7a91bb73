// Package transport is the UDP client for Vento controllers.
//
// A Client is generic over the parameter catalog of one device family and
// offers three operations:
//   - FindDevices: broadcast a search request and collect who answers
//   - Send: unicast a request and wait one timeout window for the reply
//   - SendOnly: unicast a request that controllers never answer (WRITE)
//
// # Correlation
//
// The protocol has no transaction id. Each call therefore owns a fresh
// ephemeral socket and accepts only a RESPONSE frame from the target IP that
// carries the request's device id. Two concurrent requests to the same
// device from one client cannot be told apart by the wire format; callers
// that poll a device should keep one request outstanding per device.
//
// # Absence and Noise
//
// Silence is a normal outcome (OutcomeTimedOut), not an error. Datagrams
// that fail to decode are discarded and the wait continues; Result counts
// them and keeps the last decode error for diagnosis.
//
// # Backpressure
//
// WithMaxInFlight caps open sockets with a weighted semaphore and
// WithRateLimit spaces outgoing datagrams. Neither retries: one call is one
// request and one reply window.
//
//	client := transport.NewClient[protocol.ExpertParameter](
//	    transport.WithTimeout(1500*time.Millisecond),
//	)
//	res, err := client.Send(ctx, protocol.NewReadPacket(id, pw, protocol.ExpertSpeed), ip)
//	if err != nil {
//	    return err
//	}
//	if !res.Matched() {
//	    // no reply: offline, wrong password, or lost
//	}
package transport
