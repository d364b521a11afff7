package models

// Categories is the taxonomy offered by the submission form. Stored articles
// keep the category as a plain string, so the list can change without a migration.
var Categories = []string{
	"Criminal Law", "Family Law", "Constitutional Law",
	"Tech Law", "Property Law", "Administrative Law",
	"International Law", "Contract Law", "Tort Law",
	"Succession Law", "Corporate Law", "Commercial Law",
	"Banking and Finance Law", "Securities Law", "Civil Litigation",
	"Criminal Litigation", "Alternative Dispute Resolution", "Environmental Law",
	"Energy Law", "Intellectual Property Law", "Copyright Law",
	"Patent Law", "Trademark Law", "Trade Secrets Law",
	"Labour and Employment Law", "Human Rights Law", "Health and Medical Law",
	"Real Estate Law", "Transportation Law", "Cyber Law",
	"Data Protection and Privacy Law", "Space Law", "Sports and Entertainment Law",
	"Media and Communications Law", "Education Law", "Agricultural Law",
	"Animal Law", "Maritime and Admiralty Law", "Immigration Law",
	"Tax Law", "Military Law", "Bankruptcy Law",
	"Consumer Protection Law", "Public Interest Law", "Customary and Indigenous Law",
}
