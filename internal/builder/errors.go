package builder

import "errors"

// ErrDuplicateNodeID is returned when two spawns share a nodeId (spec
// §4.11 step 2: "validate nodeId uniqueness globally").
var ErrDuplicateNodeID = errors.New("builder: duplicate nodeId")

// ErrUnknownSpec is returned when a spawn names a specId absent from
// the spec index.
var ErrUnknownSpec = errors.New("builder: unknown specId")

// ErrUnknownRole is returned for a role string outside world's Role enum.
var ErrUnknownRole = errors.New("builder: unknown role")

// ErrOTPUserWithoutDaemon is returned when a user's authMode is "otp"
// but no otp-type daemon on the same server names that userKey (spec §4.11 step
// 4: "any authMode=otp user requires a matching OTP daemon whose
// userKey exists").
var ErrOTPUserWithoutDaemon = errors.New("builder: otp user has no matching otp daemon")

// ErrMyWorkstationMissing is returned when the scenario's designated
// starting node does not exist among its spawns.
var ErrMyWorkstationMissing = errors.New("builder: myWorkstation node not found")
