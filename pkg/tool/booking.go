package tool

// BookingCatalog returns the tool set exposed to the assistant for the
// airline booking backend. The backend itself is an external collaborator;
// these definitions only describe its callable surface to the model.
func BookingCatalog() *Catalog {
	pnr := StringField{Description: "Six character booking reference (PNR), e.g. ABC123."}
	lastName := StringField{Description: "Passenger last name as it appears on the booking."}

	return NewCatalog(
		Definition{
			Name:        "search_flights",
			Description: "Search available flights between two airports on a date.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "origin", Field: StringField{Description: "Origin airport IATA code, e.g. JED."}},
					{Name: "destination", Field: StringField{Description: "Destination airport IATA code, e.g. DXB."}},
					{Name: "date", Field: StringField{Description: "Departure date in YYYY-MM-DD."}},
					{Name: "cabin", Field: StringField{Description: "Preferred cabin.", Enum: []string{"economy", "business", "first"}}},
					{Name: "passengers", Field: IntegerField{Description: "Number of travellers, defaults to 1."}},
				},
				Required: []string{"origin", "destination", "date"},
			},
		},
		Definition{
			Name:        "get_booking",
			Description: "Retrieve a booking by its reference code.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "pnr", Field: pnr},
					{Name: "last_name", Field: lastName},
				},
				Required: []string{"pnr"},
			},
		},
		Definition{
			Name:        "create_booking",
			Description: "Create a booking for a previously returned flight offer.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "offer_id", Field: StringField{Description: "Offer id from a search_flights result."}},
					{Name: "passengers", Field: ArrayField{
						Description: "Travellers to include on the booking.",
						Items: ObjectField{
							Properties: []Property{
								{Name: "first_name", Field: StringField{}},
								{Name: "last_name", Field: StringField{}},
								{Name: "date_of_birth", Field: StringField{Description: "YYYY-MM-DD."}},
							},
							Required: []string{"first_name", "last_name"},
						},
					}},
					{Name: "contact_email", Field: StringField{Description: "Email for the itinerary."}},
				},
				Required: []string{"offer_id", "passengers", "contact_email"},
			},
		},
		Definition{
			Name:        "cancel_booking",
			Description: "Cancel an existing booking. Refund rules are decided by the backend.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "pnr", Field: pnr},
					{Name: "confirm", Field: BooleanField{Description: "Must be true; the user has explicitly confirmed the cancellation."}},
				},
				Required: []string{"pnr", "confirm"},
			},
		},
		Definition{
			Name:        "check_in",
			Description: "Check a passenger in for an upcoming flight.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "pnr", Field: pnr},
					{Name: "last_name", Field: lastName},
				},
				Required: []string{"pnr", "last_name"},
			},
		},
		Definition{
			Name:        "get_seat_map",
			Description: "Fetch the seat map for a flight on a booking.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "pnr", Field: pnr},
					{Name: "segment", Field: IntegerField{Description: "Segment index within the booking, starting at 1."}},
				},
				Required: []string{"pnr"},
			},
		},
		Definition{
			Name:        "select_seat",
			Description: "Assign a seat to a passenger on a booked flight.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "pnr", Field: pnr},
					{Name: "seat", Field: StringField{Description: "Seat designator, e.g. 14C."}},
					{Name: "segment", Field: IntegerField{Description: "Segment index within the booking, starting at 1."}},
				},
				Required: []string{"pnr", "seat"},
			},
		},
		Definition{
			Name:        "add_baggage",
			Description: "Add checked baggage allowance to a booking.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "pnr", Field: pnr},
					{Name: "bags", Field: IntegerField{Description: "Number of additional checked bags."}},
					{Name: "weight_kg", Field: NumberField{Description: "Weight per bag in kilograms."}},
				},
				Required: []string{"pnr", "bags"},
			},
		},
		Definition{
			Name:        "flight_status",
			Description: "Look up the live status of a flight by number.",
			Parameters: ObjectField{
				Properties: []Property{
					{Name: "flight_number", Field: StringField{Description: "Marketing flight number, e.g. SV101."}},
					{Name: "date", Field: StringField{Description: "Departure date in YYYY-MM-DD, defaults to today."}},
				},
				Required: []string{"flight_number"},
			},
		},
		Definition{
			Name:        "get_membership",
			Description: "Retrieve the loyalty account attached to the conversation.",
			Parameters:  ObjectField{},
		},
	)
}
