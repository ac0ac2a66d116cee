package models

// All lists every table the service owns, in migration order.
func All() []interface{} {
	return []interface{}{&Record{}, &CategoryScore{}, &Tracker{}, &VerifiedSource{}, &Activity{}}
}
