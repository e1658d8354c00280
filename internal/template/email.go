package template

import "fmt"

func NewComplaintAlertTemplate(complaintID, issueType string) string {
	if issueType == "" {
		issueType = "Unspecified"
	}
	template := fmt.Sprintf(`
		<html>
        <body>
            <h2>New Complaint Registered</h2>
            <p>A new complaint has been registered in the tracker.</p>
            <p><b>Complaint ID:</b> %s</p>
            <p><b>Issue type:</b> %s</p>
            <br>
            <p>NagarVikas complaint tracker</p>
        </body>
        </html>
		`, complaintID, issueType)
	return template
}
