package service

import (
	"strings"
	"testing"
)

func TestUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range All {
		if seen[d.Name] {
			t.Errorf("duplicate service name %q", d.Name)
		}
		seen[d.Name] = true
	}
}

func TestDefinitionsComplete(t *testing.T) {
	for _, d := range All {
		if !strings.HasPrefix(d.URL, "https://") {
			t.Errorf("%s: URL %q is not https", d.Name, d.URL)
		}
		if len(d.URLPrefixes) == 0 {
			t.Errorf("%s: no URL prefixes", d.Name)
		}
		if d.WMClass == "" {
			t.Errorf("%s: missing WM class", d.Name)
		}
		if d.DBusName == "" {
			t.Errorf("%s: missing D-Bus name", d.Name)
		}
	}
}

func TestLookup(t *testing.T) {
	if d := Lookup("whatsapp"); d == nil || d.Name != "whatsapp" {
		t.Errorf("Lookup(whatsapp) = %v", d)
	}
	if d := Lookup("messenger"); d == nil || d.Name != "messenger" {
		t.Errorf("Lookup(messenger) = %v", d)
	}
	if d := Lookup("telegram"); d != nil {
		t.Errorf("Lookup(telegram) = %v, want nil", d)
	}
}

func TestBusNaming(t *testing.T) {
	if got := WhatsApp.BusName(); got != "chat.loft.WhatsApp" {
		t.Errorf("BusName() = %q", got)
	}
	if got := WhatsApp.ObjectPath(); got != "/chat/loft/WhatsApp" {
		t.Errorf("ObjectPath() = %q", got)
	}
	if got := Messenger.TrayIconName(); got != "loft-messenger-symbolic" {
		t.Errorf("TrayIconName() = %q", got)
	}
}
