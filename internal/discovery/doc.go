// Package discovery finds Vento controllers on the local network.
//
// Controllers do not advertise themselves. Discovery sends one READ of the
// search parameter, addressed to the wildcard device id, to the broadcast
// address and collects every controller that answers before the timeout.
//
// # Discovery Process
//
//  1. Broadcast the search request to UDP port 4000
//  2. Collect answers until the timeout, ignoring non-protocol datagrams
//  3. Deduplicate by device id
//  4. Optionally classify each device by reading UNIT_TYPE (needs the password)
//
// # Usage Example
//
//	scanner := discovery.NewScanner(transport.WithTimeout(2 * time.Second))
//	devices, err := scanner.ScanForDevicesWithContext(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    if err := scanner.Classify(ctx, d, protocol.DefaultPassword); err != nil {
//	        log.Printf("%s: %v", d.ID, err)
//	    }
//	    fmt.Println(d)
//	}
//
// # Device Families
//
// Unit types 3, 4 and 5 are Vento Expert controllers; everything else is
// treated as Smart Wi-Fi. The family decides which parameter catalog the
// controller package uses.
//
// # Network Requirements
//
// - Broadcast must reach the controllers (same L2 segment), otherwise use Probe
// - Firewall must allow UDP port 4000 outbound and the replies back
package discovery
