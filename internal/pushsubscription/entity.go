package pushsubscription

import "time"

// Subscription is a browser push endpoint with its encryption keys, as
// delivered by the PushManager subscribe call.
type Subscription struct {
	ID        string    `yaml:"id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	CreatedAt time.Time `yaml:"created_at"`
}
