package model

// User is an actor in the activity snapshot.
type User struct {
	ID    int64
	Login string
	Name  string
}

// UserReference is the display projection of a user embedded in attention items.
type UserReference struct {
	ID    int64
	Login string
	Name  string
}

// Reference returns the display projection of the user.
func (u User) Reference() UserReference {
	return UserReference{ID: u.ID, Login: u.Login, Name: u.Name}
}

// UserPreferences holds the per-person calendar settings used when aging
// items from that person's point of view.
type UserPreferences struct {
	UserID               int64
	Timezone             string   // IANA name; empty means organization default.
	HolidayCalendarCodes []string // Personal calendars unioned with the organization's.
	HolidayDates         []string // Ad-hoc personal days off, YYYY-MM-DD.
}
