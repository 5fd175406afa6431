package dashboard

import "github.com/iliyamo/sakila-admin/internal/repository"

const topFilmsSQL = `SELECT f.film_id, f.title, COUNT(*) AS n
	FROM rental r
	JOIN inventory i ON i.inventory_id = r.inventory_id
	JOIN film f      ON f.film_id = i.film_id
	GROUP BY f.film_id, f.title
	ORDER BY n DESC, f.film_id ASC
	LIMIT ?`

const topCustomersSQL = `SELECT c.customer_id, CONCAT(c.first_name, ' ', c.last_name), SUM(p.amount) AS total
	FROM payment p
	JOIN customer c ON c.customer_id = p.customer_id
	GROUP BY c.customer_id, c.first_name, c.last_name
	ORDER BY total DESC, c.customer_id ASC
	LIMIT ?`

func count(key, title, table, group string) CardSpec {
	return CardSpec{Key: key, Title: title, Kind: KindCount, Table: table, Group: group}
}

// DefaultCards is the Sakila store overview plus the streaming overlay.
func DefaultCards() []CardSpec {
	return []CardSpec{
		count("films", "Films", "film", "store"),
		count("actors", "Actors", "actor", "store"),
		count("customers", "Customers", "customer", "store"),
		count("rentals", "Rentals", "rental", "store"),
		count("inventory", "Inventory items", "inventory", "store"),
		count("stores", "Stores", "store", "store"),
		count("categories", "Categories", "category", "store"),
		count("staff", "Staff", "staff", "store"),
		{Key: "revenue", Title: "Total revenue", Kind: KindSum, Table: "payment", Column: "amount", Group: "store"},
		{Key: "top_films", Title: "Most rented films", Kind: KindTop, Table: "rental", Group: "store",
			Top: repository.TopQuery{Name: "top_films", Table: "rental", SQL: topFilmsSQL, Limit: 5}},
		{Key: "top_customers", Title: "Top customers by payments", Kind: KindTop, Table: "payment", Group: "store",
			Top: repository.TopQuery{Name: "top_customers", Table: "payment", SQL: topCustomersSQL, Limit: 5}},
		count("videos", "Videos", "videos", "streaming"),
		count("users", "Users", "users", "streaming"),
		count("subscriptions", "Subscriptions", "subscriptions", "streaming"),
		count("comments", "Comments", "comments", "streaming"),
		count("view_events", "Views", "view_events", "streaming"),
	}
}
