// Package charge implements the price-aware charge controller: it
// normalizes raw price data against a finish-by deadline, greedily
// selects the cheapest usable slots and maps live charger signals onto
// a status plus an on/off command.
package charge
