package models

// All lists the models owned by this service in dependency order. Used to
// auto-migrate the sqlite development database, which goose does not target.
func All() []any {
	return []any{
		&User{},
		&NotificationSettings{},
		&Notification{},
		&Property{},
		&Rental{},
		&Payment{},
		&EndRentalRequest{},
		&ZoneSubscription{},
	}
}
