package domain

import perr "brigade/internal/platform/errors"

func errBadValue(key, value string) error {
	if key == "" {
		return perr.Validationf("invalid policy value %q", value)
	}
	return perr.Validationf("invalid value %q for policy option %s", value, key)
}

func errUnknownKey(key string) error {
	return perr.Validationf("unknown policy option %s", key)
}
