package tgui

import (
	"errors"
	"strings"
)

// MaxCallbackDataLen is Telegram's callback_data limit in bytes.
const MaxCallbackDataLen = 64

var ErrCallbackDataTooLong = errors.New("tgui: callback_data too long")

// Data formats callback data as "namespace:action[:payload]". It panics when
// the result exceeds MaxCallbackDataLen; callback data is built from static
// names and catalog ids, so an overflow is a programming error.
func Data(namespace, action, payload string) string {
	s, err := DataChecked(namespace, action, payload)
	if err != nil {
		panic(err.Error() + ": " + s)
	}
	return s
}

func DataChecked(namespace, action, payload string) (string, error) {
	s := strings.TrimSpace(namespace) + ":" + strings.TrimSpace(action)
	if payload != "" {
		s += ":" + payload
	}
	if len(s) > MaxCallbackDataLen {
		return s, ErrCallbackDataTooLong
	}
	return s, nil
}

// ParseData splits callback data built by Data. The payload may itself
// contain ':'.
func ParseData(data string) (namespace, action, payload string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	if len(parts) == 3 {
		payload = parts[2]
	}
	return parts[0], parts[1], payload, true
}
