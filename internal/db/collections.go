package db

// Collection names, shared by every backend.
const (
	ProductsCollection    = "products"
	UsersCollection       = "users"
	OrdersCollection      = "orders"
	PaymentsCollection    = "payments"
	ReviewsCollection     = "reviews"
	CartsCollection       = "carts"
	TeamsCollection       = "teams"
	TeamMembersCollection = "teamMembers"
	BlogsCollection       = "blogs"
)

// GuardedCollections hold documents inserted through InsertUnique.
var GuardedCollections = []string{OrdersCollection, CartsCollection}
