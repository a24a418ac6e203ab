// Package service holds the static definitions of the messaging services
// Loft can host.
package service

import "fmt"

// Definition describes one supported messaging service.
type Definition struct {
	// Name is the stable service identifier ("whatsapp", "messenger").
	Name string
	// DisplayName is the human-readable name used in menus and notifications.
	DisplayName string
	// URL is the canonical URL a new service window is seeded with.
	URL string
	// URLPrefixes recognise the service's tabs/windows at adoption time.
	URLPrefixes []string
	// DBusName is the CamelCase suffix of the daemon's session bus name.
	DBusName string
	// AppIconFilename is the local icon file under the Loft icons dir.
	AppIconFilename string
	// AppIconURL is where the app icon is fetched from on install.
	AppIconURL string
	// TrayIconURL is where the symbolic tray icon is fetched from on install.
	TrayIconURL string
	// WMClass is the window-manager class Chrome assigns in --app mode.
	// The shell helper addresses windows by this string, never by handle.
	WMClass string
	// ScrapeConversations enables the DOM unread-list scraper; only the
	// Messenger-style service needs it (WhatsApp fires real notifications).
	ScrapeConversations bool
}

// TrayIconName returns the XDG icon theme name for the tray icon.
// The -symbolic suffix lets GNOME recolour it to match the panel.
func (d *Definition) TrayIconName() string {
	return fmt.Sprintf("loft-%s-symbolic", d.Name)
}

// AppIconName returns the XDG icon theme name for the application icon.
func (d *Definition) AppIconName() string {
	return "loft-" + d.Name
}

// BusName returns the daemon's well-known session bus name for this service.
func (d *Definition) BusName() string {
	return "chat.loft." + d.DBusName
}

// ObjectPath returns the daemon's D-Bus object path for this service.
func (d *Definition) ObjectPath() string {
	return "/chat/loft/" + d.DBusName
}

// WhatsApp is the WhatsApp Web service definition.
var WhatsApp = Definition{
	Name:            "whatsapp",
	DisplayName:     "WhatsApp",
	URL:             "https://web.whatsapp.com/",
	URLPrefixes:     []string{"https://web.whatsapp.com/"},
	DBusName:        "WhatsApp",
	AppIconFilename: "whatsapp.svg",
	AppIconURL:      "https://raw.githubusercontent.com/loft-chat/loft/main/assets/icons/whatsapp.svg",
	TrayIconURL:     "https://raw.githubusercontent.com/loft-chat/loft/main/assets/icons/whatsapp-symbolic.svg",
	WMClass:         "chrome-web.whatsapp.com__-Default",
}

// Messenger is the Facebook Messenger service definition.
var Messenger = Definition{
	Name:                "messenger",
	DisplayName:         "Facebook Messenger",
	URL:                 "https://facebook.com/messages/",
	URLPrefixes:         []string{"https://facebook.com/messages/", "https://www.facebook.com/messages/"},
	DBusName:            "Messenger",
	AppIconFilename:     "messenger.svg",
	AppIconURL:          "https://raw.githubusercontent.com/loft-chat/loft/main/assets/icons/messenger.svg",
	TrayIconURL:         "https://raw.githubusercontent.com/loft-chat/loft/main/assets/icons/messenger-symbolic.svg",
	WMClass:             "chrome-facebook.com_messages_-Default",
	ScrapeConversations: true,
}

// All lists every supported service.
var All = []*Definition{&WhatsApp, &Messenger}

// Lookup returns the definition for a service name, or nil if unknown.
func Lookup(name string) *Definition {
	for _, d := range All {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Names returns the names of all supported services.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, d := range All {
		names = append(names, d.Name)
	}
	return names
}
