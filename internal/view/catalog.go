package view

// Default returns the built-in catalog of Sakila and streaming overlay views.
func Default() *Catalog {
	c, err := NewCatalog(defaultViews()...)
	if err != nil {
		panic(err)
	}
	return c
}

func defaultViews() []View {
	return []View{
		{
			Name: "films", Title: "Films", Table: "film", PrimaryKey: "film_id",
			Columns:      []string{"film_id", "title", "release_year", "language_id", "rental_rate", "length", "rating"},
			DefaultOrder: "film_id", DefaultAscending: true,
			Sortable:   []string{"film_id", "title", "release_year", "rental_rate", "length"},
			Filterable: []string{"title", "rating", "release_year", "language_id"},
			Search:     []string{"title"},
			Embeds: []Embed{
				{Name: "language", Table: "language", LocalKey: "language_id", ForeignKey: "language_id", LabelColumns: []string{"name"}, Placeholder: Unknown},
			},
			Related: []Related{
				{Name: "actor_count", Table: "film_actor", ForeignKey: "film_id"},
			},
		},
		{
			Name: "actors", Title: "Actors", Table: "actor", PrimaryKey: "actor_id",
			Columns:      []string{"actor_id", "first_name", "last_name", "last_update"},
			DefaultOrder: "actor_id", DefaultAscending: true,
			Sortable:   []string{"actor_id", "first_name", "last_name"},
			Filterable: []string{"first_name", "last_name"},
			Search:     []string{"first_name", "last_name"},
			Related: []Related{
				{Name: "film_count", Table: "film_actor", ForeignKey: "actor_id"},
			},
		},
		{
			Name: "customers", Title: "Customers", Table: "customer", PrimaryKey: "customer_id",
			Columns:      []string{"customer_id", "store_id", "first_name", "last_name", "email", "address_id", "active", "create_date"},
			DefaultOrder: "customer_id", DefaultAscending: true,
			Sortable:   []string{"customer_id", "first_name", "last_name", "create_date"},
			Filterable: []string{"store_id", "first_name", "last_name", "email", "active"},
			Search:     []string{"first_name", "last_name"},
			Embeds: []Embed{
				{Name: "address", Table: "address", LocalKey: "address_id", ForeignKey: "address_id", LabelColumns: []string{"address", "district"}, Placeholder: NA},
			},
		},
		{
			Name: "rentals", Title: "Rentals", Table: "rental", PrimaryKey: "rental_id",
			Columns:      []string{"rental_id", "rental_date", "inventory_id", "customer_id", "return_date", "staff_id"},
			DefaultOrder: "rental_date", DefaultAscending: false,
			Sortable:   []string{"rental_id", "rental_date", "return_date"},
			Filterable: []string{"customer_id", "staff_id", "inventory_id"},
			Embeds: []Embed{
				{Name: "customer", Table: "customer", LocalKey: "customer_id", ForeignKey: "customer_id", LabelColumns: []string{"first_name", "last_name"}, Placeholder: Unknown},
				{Name: "staff", Table: "staff", LocalKey: "staff_id", ForeignKey: "staff_id", LabelColumns: []string{"first_name", "last_name"}, Placeholder: Unknown},
			},
		},
		{
			Name: "payments", Title: "Payments", Table: "payment", PrimaryKey: "payment_id",
			Columns:      []string{"payment_id", "customer_id", "staff_id", "rental_id", "amount", "payment_date"},
			DefaultOrder: "payment_date", DefaultAscending: false,
			Sortable:   []string{"payment_id", "amount", "payment_date"},
			Filterable: []string{"customer_id", "staff_id", "rental_id"},
		},
		{
			Name: "inventory", Title: "Inventory", Table: "inventory", PrimaryKey: "inventory_id",
			Columns:      []string{"inventory_id", "film_id", "store_id", "last_update"},
			DefaultOrder: "inventory_id", DefaultAscending: true,
			Sortable:   []string{"inventory_id", "film_id", "store_id"},
			Filterable: []string{"film_id", "store_id"},
			Embeds: []Embed{
				{Name: "film", Table: "film", LocalKey: "film_id", ForeignKey: "film_id", LabelColumns: []string{"title"}, Placeholder: Unknown},
			},
			Related: []Related{
				{Name: "is_rented", Table: "rental", ForeignKey: "inventory_id", Filter: "return_date IS NULL", Flag: true},
			},
		},
		{
			Name: "stores", Title: "Stores", Table: "store", PrimaryKey: "store_id",
			Columns:      []string{"store_id", "manager_staff_id", "address_id", "last_update"},
			DefaultOrder: "store_id", DefaultAscending: true,
			Sortable:   []string{"store_id"},
			Filterable: []string{"manager_staff_id"},
			Embeds: []Embed{
				{Name: "manager", Table: "staff", LocalKey: "manager_staff_id", ForeignKey: "staff_id", LabelColumns: []string{"first_name", "last_name"}, Placeholder: Unknown},
				{Name: "address", Table: "address", LocalKey: "address_id", ForeignKey: "address_id", LabelColumns: []string{"address", "district"}, Placeholder: NA},
			},
		},
		{
			Name: "categories", Title: "Categories", Table: "category", PrimaryKey: "category_id",
			Columns:      []string{"category_id", "name", "last_update"},
			DefaultOrder: "category_id", DefaultAscending: true,
			Sortable:   []string{"category_id", "name"},
			Filterable: []string{"name"},
			Search:     []string{"name"},
			Related: []Related{
				{Name: "film_count", Table: "film_category", ForeignKey: "category_id"},
			},
		},
		{
			Name: "staff", Title: "Staff", Table: "staff", PrimaryKey: "staff_id",
			Columns:      []string{"staff_id", "first_name", "last_name", "email", "store_id", "active", "username"},
			DefaultOrder: "staff_id", DefaultAscending: true,
			Sortable:   []string{"staff_id", "first_name", "last_name"},
			Filterable: []string{"store_id", "active"},
			Search:     []string{"first_name", "last_name", "username"},
			Related: []Related{
				{Name: "rental_count", Table: "rental", ForeignKey: "staff_id"},
			},
		},
		{
			Name: "locations", Title: "Locations", Table: "city", PrimaryKey: "city_id",
			Columns:      []string{"city_id", "city", "country_id", "last_update"},
			DefaultOrder: "city", DefaultAscending: true,
			Sortable:   []string{"city_id", "city", "country_id"},
			Filterable: []string{"city", "country_id"},
			Search:     []string{"city"},
			Embeds: []Embed{
				{Name: "country", Table: "country", LocalKey: "country_id", ForeignKey: "country_id", LabelColumns: []string{"country"}, Placeholder: Unknown},
			},
		},
		{
			Name: "videos", Title: "Videos", Table: "videos", PrimaryKey: "video_id",
			Columns:      []string{"video_id", "film_id", "title", "url", "duration_seconds", "created_at"},
			DefaultOrder: "created_at", DefaultAscending: false,
			Sortable:   []string{"video_id", "title", "duration_seconds", "created_at"},
			Filterable: []string{"film_id", "title"},
			Search:     []string{"title"},
			Related: []Related{
				{Name: "view_count", Table: "view_events", ForeignKey: "video_id"},
				{Name: "comment_count", Table: "comments", ForeignKey: "video_id"},
			},
		},
		{
			Name: "users", Title: "Users", Table: "users", PrimaryKey: "user_id",
			Columns:      []string{"user_id", "username", "email", "created_at"},
			DefaultOrder: "user_id", DefaultAscending: true,
			Sortable:   []string{"user_id", "username", "created_at"},
			Filterable: []string{"username", "email"},
			Search:     []string{"username", "email"},
			Related: []Related{
				{Name: "subscription_count", Table: "subscriptions", ForeignKey: "user_id"},
			},
		},
		{
			Name: "subscriptions", Title: "Subscriptions", Table: "subscriptions", PrimaryKey: "subscription_id",
			Columns:      []string{"subscription_id", "user_id", "plan", "status", "started_at", "ends_at"},
			DefaultOrder: "started_at", DefaultAscending: false,
			Sortable:   []string{"subscription_id", "started_at", "ends_at"},
			Filterable: []string{"user_id", "plan", "status"},
			Embeds: []Embed{
				{Name: "user", Table: "users", LocalKey: "user_id", ForeignKey: "user_id", LabelColumns: []string{"username"}, Placeholder: Unknown},
			},
		},
		{
			Name: "comments", Title: "Comments", Table: "comments", PrimaryKey: "comment_id",
			Columns:      []string{"comment_id", "video_id", "user_id", "body", "created_at"},
			DefaultOrder: "created_at", DefaultAscending: false,
			Sortable:   []string{"comment_id", "created_at"},
			Filterable: []string{"video_id", "user_id"},
			Search:     []string{"body"},
		},
	}
}
