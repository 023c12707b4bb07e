package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeHostTXT creates TXT records for host advertisement.
func EncodeHostTXT(info *HostInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyAppName] = info.AppName
	txt[TXTKeyFingerprint] = info.Fingerprint

	version := info.ProtocolVersion
	if version == "" {
		version = "1"
	}
	txt[TXTKeyProtocolVersion] = version

	if info.Description != "" {
		txt[TXTKeyDescription] = info.Description
	}

	return txt
}

// DecodeHostTXT parses TXT records from a host advertisement.
func DecodeHostTXT(txt TXTRecordMap) (*HostInfo, error) {
	info := &HostInfo{}

	var ok bool
	info.AppName, ok = txt[TXTKeyAppName]
	if !ok || info.AppName == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyAppName)
	}

	info.Fingerprint, ok = txt[TXTKeyFingerprint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyFingerprint)
	}
	if len(info.Fingerprint) != FingerprintLength || !isHexString(info.Fingerprint) {
		return nil, fmt.Errorf("%w: invalid fingerprint format", ErrInvalidTXTRecord)
	}

	info.ProtocolVersion, ok = txt[TXTKeyProtocolVersion]
	if !ok || info.ProtocolVersion == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProtocolVersion)
	}

	info.Description = txt[TXTKeyDescription]

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, the format mDNS libraries use.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a
// TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
