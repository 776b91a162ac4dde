package packet

import (
	"errors"
	"fmt"
)

// ErrIncompleteFrame reports that a byte sequence ends before one whole
// control packet is present. It is not a protocol error: the caller is
// expected to wait for more bytes and retry.
var ErrIncompleteFrame = errors.New("packet: incomplete frame")

// ReasonCode pairs an MQTT code with a human readable reason.
// The codes follow the numbering of MQTT v5.0 section 4.13 Handling errors
// so log lines stay greppable against the standard, even though the wire
// protocol spoken here is v3.1.1.
type ReasonCode struct {
	Code   uint8
	Reason string
}

// Error implements the error interface.
func (rc ReasonCode) Error() string {
	return fmt.Sprintf("%d:%s", rc.Code, rc.Reason)
}

var (
	// ErrMalformedPacket the packet could not be parsed according to the
	// v3.1.1 grammar. Also returned for the forbidden packet type 0x0.
	ErrMalformedPacket = ReasonCode{Code: 0x81, Reason: "malformed packet"}

	// ErrMalformedFlags the fixed header flag bits do not match the values
	// the packet type reserves for them [MQTT-2.2.2-1].
	ErrMalformedFlags = ReasonCode{Code: 0x81, Reason: "malformed flags"}

	// ErrTruncatedPacket the body ends before a length-prefixed field or a
	// packet identifier could be read in full.
	ErrTruncatedPacket = ReasonCode{Code: 0x81, Reason: "truncated packet"}

	// ErrMalformedReasonCode a SUBACK carries no return codes, or a return
	// code outside the granted-QoS / failure range.
	ErrMalformedReasonCode = ReasonCode{Code: 0x81, Reason: "malformed reason code"}

	// ErrProtocolViolationNoTopic a SUBSCRIBE carries zero topic filters
	// [MQTT-3.8.3-3].
	ErrProtocolViolationNoTopic = ReasonCode{Code: 0x82, Reason: "no topic filter"}

	// ErrProtocolViolationQosOutOfRange a QoS field holds the reserved
	// value 3 [MQTT-3.3.1-4].
	ErrProtocolViolationQosOutOfRange = ReasonCode{Code: 0x9B, Reason: "qos out of range"}

	// ErrTopicNameInvalid a PUBLISH topic name is empty [MQTT-3.3.2-1].
	ErrTopicNameInvalid = ReasonCode{Code: 0x90, Reason: "topic name invalid"}

	// ErrPacketTooLarge a Remaining Length encoding does not terminate
	// within four bytes, or a value above 268,435,455 was asked for.
	ErrPacketTooLarge = ReasonCode{Code: 0x95, Reason: "packet too large"}
)
