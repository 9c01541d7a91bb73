package controller

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNoResponse indicates the controller stayed silent for the whole
	// reply window (offline, wrong password, or lost datagram)
	ErrTypeNoResponse ErrorType = iota
	// ErrTypeDecode indicates replies arrived but none could be decoded
	ErrTypeDecode
	// ErrTypeMissingParameter indicates a reply without a required parameter
	ErrTypeMissingParameter
	// ErrTypeValidation indicates a value outside the parameter's range
	ErrTypeValidation
	// ErrTypeNetwork indicates a local socket or routing failure
	ErrTypeNetwork
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorPermission
	NetworkErrorAddress
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNoResponse:
		return "No Response"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeMissingParameter:
		return "Missing Parameter"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeNetwork:
		return "Network Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred while talking to a controller
type DeviceError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	DeviceID       string              // Device id (for context)
	DeviceIP       string              // Device IP address (for context)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a socket error and returns a DeviceError
// with a specific subtype
func ClassifyNetworkError(err error, t Target) *DeviceError {
	if err == nil {
		return nil
	}

	devErr := &DeviceError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		DeviceID:       t.ID,
		DeviceIP:       t.IP,
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
	}

	var addrErr *net.AddrError
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, syscall.EHOSTUNREACH):
		devErr.Message = "Host unreachable"
		devErr.NetworkSubtype = NetworkErrorHostUnreachable
	case errors.Is(err, syscall.ENETUNREACH):
		devErr.Message = "Network unreachable"
		devErr.NetworkSubtype = NetworkErrorNetworkUnreachable
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		devErr.Message = "Permission denied sending datagram"
		devErr.NetworkSubtype = NetworkErrorPermission
	case errors.As(err, &addrErr), errors.As(err, &dnsErr):
		devErr.Message = "Invalid device address"
		devErr.NetworkSubtype = NetworkErrorAddress
	}
	return devErr
}

// NewNoResponseError creates the error reported when a controller is silent
func NewNoResponseError(t Target) *DeviceError {
	return &DeviceError{
		Type:     ErrTypeNoResponse,
		Message:  "device not responding, is your device password correct?",
		DeviceID: t.ID,
		DeviceIP: t.IP,
	}
}

// NewDecodeError creates an error for replies that could not be decoded
func NewDecodeError(t Target, discarded int, err error) *DeviceError {
	return &DeviceError{
		Type:     ErrTypeDecode,
		Message:  fmt.Sprintf("received %d unusable replies", discarded),
		DeviceID: t.ID,
		DeviceIP: t.IP,
		Err:      err,
	}
}

// NewMissingParameterError creates an error for a reply without param
func NewMissingParameterError(t Target, param string) *DeviceError {
	return &DeviceError{
		Type:     ErrTypeMissingParameter,
		Message:  fmt.Sprintf("reply does not contain %s", param),
		DeviceID: t.ID,
		DeviceIP: t.IP,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func isType(err error, types ...ErrorType) bool {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return false
	}
	for _, t := range types {
		if devErr.Type == t {
			return true
		}
	}
	return false
}

// IsNoResponse checks if an error means the controller stayed silent
func IsNoResponse(err error) bool {
	return isType(err, ErrTypeNoResponse)
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	return isType(err, ErrTypeDecode)
}

// IsMissingParameter checks if a reply lacked a required parameter
func IsMissingParameter(err error) bool {
	return isType(err, ErrTypeMissingParameter)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrTypeValidation)
}

// IsNetworkError checks if an error is a local network error
func IsNetworkError(err error) bool {
	return isType(err, ErrTypeNetwork)
}

// IsRetryable reports whether polling again may succeed. Silence and
// corrupt replies are transient on UDP; bad input is not.
func IsRetryable(err error) bool {
	return isType(err, ErrTypeNoResponse, ErrTypeDecode, ErrTypeNetwork)
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeNoResponse:
		return strings.Join([]string{
			"The controller did not answer.",
			"Troubleshooting:",
			"  • Run 'ventoctl scan': if the device is listed, the password is wrong",
			"  • If it is not listed, check that the fan is powered and on your network",
			"  • The factory password is 1111",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeDecode:
		return strings.Join([]string{
			"Replies arrived but could not be decoded.",
			"Troubleshooting:",
			"  • Check --family: Expert and Smart Wi-Fi use different parameter tables",
			"  • Another service may be answering on UDP port 4000",
			"  • Run with VENTO_LOG_LEVEL=debug to see the raw datagrams",
		}, "\n")

	case ErrTypeMissingParameter:
		return strings.Join([]string{
			"The controller answered without the requested parameter.",
			"Its firmware may not support it, or --family is wrong.",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint, "The device is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the device IP address is correct",
				"  • Check that you're on the same network as the device",
				"  • Try pinging the device: ping "+devErr.DeviceIP)

		case NetworkErrorNetworkUnreachable:
			hint = append(hint, "Your computer has no route to the device's network.",
				"Troubleshooting:",
				"  • Check your network adapter settings",
				"  • Verify WiFi or Ethernet is connected")

		case NetworkErrorPermission:
			hint = append(hint, "The operating system refused to send the datagram.",
				"Troubleshooting:",
				"  • A firewall may block UDP port 4000 or broadcast traffic",
				"  • Try a subnet broadcast with --broadcast (e.g. 192.168.1.255)")

		case NetworkErrorAddress:
			hint = append(hint, "The device address is not a valid IPv4 address.",
				"Troubleshooting:",
				"  • Pass a dotted address with --ip, or omit it to use discovery")

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Ensure you're connected to the correct network")
		}

		return strings.Join(hint, "\n")

	case ErrTypeValidation:
		return "The value is out of range. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeNoResponse:
		return "Device not responding - is the password correct?"
	case ErrTypeDecode:
		return "Device replies could not be decoded"
	case ErrTypeMissingParameter:
		return devErr.Message
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Device unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check connection"
		case NetworkErrorPermission:
			return "Sending blocked - check firewall"
		default:
			return "Network error - check connection"
		}
	default:
		return devErr.Message
	}
}
