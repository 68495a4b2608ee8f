package hostapd

import (
	"errors"
	"fmt"
	"strings"
)

// EncryptionType selects the authentication mode of the generated network.
type EncryptionType int

const (
	// EncryptionOpen configures an open network.
	EncryptionOpen EncryptionType = iota

	// EncryptionWPA configures WPA-PSK.
	EncryptionWPA

	// EncryptionWPA2 configures WPA2-PSK (RSN).
	EncryptionWPA2
)

// String returns the encryption type name.
func (e EncryptionType) String() string {
	switch e {
	case EncryptionOpen:
		return "open"
	case EncryptionWPA:
		return "wpa-psk"
	case EncryptionWPA2:
		return "wpa2-psk"
	default:
		return "unknown"
	}
}

// Passphrase length limits from the WPA specification.
const (
	minPassphraseLen = 8
	maxPassphraseLen = 63
)

// Channel boundaries; channels above 14 are treated as 5 GHz.
const (
	minChannel     = 1
	maxChannel     = 196
	max2GHzChannel = 14
)

// Sentinel errors for configuration generation.
var (
	ErrEmptySSID      = errors.New("hostapd: ssid is empty")
	ErrBadChannel     = errors.New("hostapd: channel out of range")
	ErrBadPassphrase  = errors.New("hostapd: passphrase length invalid")
	ErrBadEncryption  = errors.New("hostapd: unknown encryption type")
	ErrSSIDLineBreaks = errors.New("hostapd: ssid contains line breaks")
)

// Settings describes one access-point network.
type Settings struct {
	// SSID is the raw network name. Non-UTF8 byte strings are allowed;
	// they are emitted as a hex ssid2 line.
	SSID []byte

	// Hidden suppresses SSID broadcast when true.
	Hidden bool

	// Channel is the operating channel (1-196; >14 selects 5 GHz).
	Channel int

	// Encryption selects the authentication mode.
	Encryption EncryptionType

	// Passphrase is the pre-shared key for WPA/WPA2 networks.
	Passphrase []byte
}

// BuildConfig generates hostapd configuration text for the given
// interface and network settings. An empty result always carries an
// error; callers treat empty config as a generation failure.
func BuildConfig(ifaceName, controlDir string, s Settings) (string, error) {
	if len(s.SSID) == 0 {
		return "", ErrEmptySSID
	}
	if strings.ContainsAny(string(s.SSID), "\r\n") {
		return "", ErrSSIDLineBreaks
	}
	if s.Channel < minChannel || s.Channel > maxChannel {
		return "", fmt.Errorf("%w: %d", ErrBadChannel, s.Channel)
	}

	hwMode := "g"
	if s.Channel > max2GHzChannel {
		hwMode = "a"
	}

	hidden := 0
	if s.Hidden {
		hidden = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", ifaceName)
	b.WriteString("driver=nl80211\n")
	fmt.Fprintf(&b, "ctrl_interface=%s\n", controlDir)
	fmt.Fprintf(&b, "ssid2=%s\n", encodeSSID(s.SSID))
	fmt.Fprintf(&b, "channel=%d\n", s.Channel)
	b.WriteString("ieee80211n=1\n")
	fmt.Fprintf(&b, "hw_mode=%s\n", hwMode)
	fmt.Fprintf(&b, "ignore_broadcast_ssid=%d\n", hidden)

	switch s.Encryption {
	case EncryptionOpen:
		// No security block.
	case EncryptionWPA, EncryptionWPA2:
		if len(s.Passphrase) < minPassphraseLen || len(s.Passphrase) > maxPassphraseLen {
			return "", fmt.Errorf("%w: %d bytes", ErrBadPassphrase, len(s.Passphrase))
		}
		wpa := 1
		pairwise := "wpa_pairwise=TKIP CCMP"
		if s.Encryption == EncryptionWPA2 {
			wpa = 2
			pairwise = "rsn_pairwise=CCMP"
		}
		fmt.Fprintf(&b, "wpa=%d\n", wpa)
		fmt.Fprintf(&b, "wpa_passphrase=%s\n", s.Passphrase)
		b.WriteString("wpa_key_mgmt=WPA-PSK\n")
		b.WriteString(pairwise + "\n")
	default:
		return "", fmt.Errorf("%w: %d", ErrBadEncryption, int(s.Encryption))
	}

	return b.String(), nil
}

// encodeSSID emits the ssid2 value: quoted when printable, hex otherwise.
func encodeSSID(ssid []byte) string {
	for _, c := range ssid {
		if c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			return fmt.Sprintf("%x", ssid)
		}
	}
	return fmt.Sprintf("%q", ssid)
}
