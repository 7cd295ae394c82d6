package notification

import "strings"

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	FromAddr   string `json:"from_address"`
	ToAddrs    string `json:"to_addresses"`
	Encryption string `json:"encryption"` // "none", "starttls", "ssl_tls"
}

// Recipients splits ToAddrs on commas, dropping blanks.
func (c SMTPConfig) Recipients() []string {
	var out []string
	for _, r := range strings.Split(c.ToAddrs, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
