package session

import "github.com/hollowgrid/engine/internal/world"

// authenticate implements spec §4.8's auth-mode rules: none always
// passes, static requires an exact password match, other modes (otp)
// consult their daemon configuration. Nothing in the engine generates
// one-time passwords: internal/builder copies each daemon's blueprint
// Config as given, and here we only check that a matching otp daemon
// exists and that the supplied password equals its Config["currentCode"].
func authenticate(w *world.World, target *world.Server, userKey string, user *world.UserConfig, password string) bool {
	switch user.AuthMode {
	case world.AuthNone:
		return true
	case world.AuthStatic:
		return user.Password == password
	case world.AuthOTP:
		return authenticateOTP(target, userKey, password)
	default:
		return false
	}
}

// authenticateOTP checks password against the current code held on the
// otp daemon matching this user's key.
func authenticateOTP(target *world.Server, userKey, password string) bool {
	for _, d := range target.Daemons {
		if d.DaemonType != "otp" || d.UserKey != userKey {
			continue
		}
		if code, ok := d.Config["currentCode"]; ok && code == password {
			return true
		}
	}
	return false
}
