package main

// app.timezone must load on hosts without a system zoneinfo database.
import _ "time/tzdata"
