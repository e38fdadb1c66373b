package flow

import (
	"fmt"

	"github.com/spigell/cvbuilder/internal/render"
)

// MsgTryAgain is sent by transports when an event could not be processed.
const MsgTryAgain = "😥 Something went wrong while saving your progress. Please try again in a moment."

const (
	msgWelcome = "👋 Hello!\n\nI'm *CVBuilder*, your assistant for creating professional, minimalist CVs.\n\n" +
		"How would you like to start?"

	msgHelp = "Use /start to begin creating a CV.\n" +
		"You can either:\n" +
		"1. Create a CV from scratch by answering questions.\n" +
		"2. Upload an existing CV (PDF/DOCX) for me to parse and reformat.\n\n" +
		"Use /cancel to drop the CV in progress.\n" +
		"I'll guide you through the steps! Data is only stored temporarily during creation."

	msgCancelled      = "🗑 Your CV in progress has been discarded. Use /start to begin again."
	msgUnknownCommand = "I don't know that command. Use /start to create a CV or /help for more information."

	msgScratchIntro  = "✨ Let's build your CV step by step. I'll ask one question at a time."
	msgSkipReminder  = "_Type %s to leave this field empty._"
	msgDoneReminder  = "Type '%s' when you have finished this section."
	msgEmptyInput    = "⚠️ I didn't get anything. Please enter a value or type %s."
	msgInvalidEmail  = "⚠️ That doesn't look like a valid email address. Please try again."
	msgInvalidURL    = "⚠️ That doesn't look like a valid URL. Please try again."
	msgInvalidValue  = "⚠️ I couldn't accept that value. Please try again."
	msgEntryAdded    = "✅ Added to %s. Add another or type '%s'."
	msgEntryRejected = "😕 Sorry, I couldn't understand that format: %s.\n\n%s\n\nPlease try again or type '%s'."

	msgRequestUpload      = "📄 Please upload your CV as a PDF or DOCX file."
	msgUploadUnavailable  = "😥 Uploading is not available right now. You can create your CV from scratch instead."
	msgUploadExpected     = "Please upload a file using the attachment button, or choose an option using /start."
	msgUploadNotExpected  = "Please use /start and choose the 'Upload Existing CV' option before uploading a file."
	msgNoDocument         = "Hmm, I didn't receive a document. Please try uploading again."
	msgUnsupportedFile    = "Sorry, I can only process PDF or DOCX files. Please upload a valid file."
	msgFileTooLarge       = "Sorry, that file is too large (limit %d MB). Please upload a smaller file."
	msgProcessing         = "⏳ Got it! Processing your CV... (This might take a moment)"
	msgFetchFailed        = "😥 I couldn't download your file. Please try uploading it again."
	msgUnreadableFile     = "😥 I couldn't read that file. Please check it or try a different format."
	msgUploadInterrupted  = "⚠️ Processing of your previous upload was interrupted. Please upload the file again."
	msgNoText             = "😥 I couldn't extract any text from your document. Please check the file or try a different format."
	msgUnstructured       = "😥 Sorry, I had trouble understanding the structure of your CV."
	msgExtractionDown     = "😥 The CV reading service is not available right now."
	msgExtractionFallback = "You could try the 'Create from Scratch' option instead, or upload another file."

	msgValidationFailed = "There was an issue validating the collected data. Please start over with /start."
	msgReviewQuestion   = "Does everything look right?"
	msgReviewRejected   = "Okay, let's start over. Use /start to begin."

	msgChooseTemplate        = "Great! Now, let's choose a template.\n\n🎨 Choose a template style for your CV:"
	msgInvalidTemplate       = "Invalid template selected. Please try again."
	msgGenerating            = "✨ Generating your '%s' CV... Please wait."
	msgOutputCaption         = "✅ Here is your generated CV! ✨"
	msgRenderFailed          = "😥 Sorry, there was an error creating the PDF for the selected template. You might try a different template or start over."
	msgSendFailed            = "I generated the PDF, but there was an error sending it. Please choose a template to try again."
	msgGenerationInterrupted = "⚠️ Generation of your previous CV was interrupted. Please choose a template again."
	msgValidationBeforeSend  = "Error validating data before creating the PDF. Please restart with /start."

	msgUseButtons  = "Please use the buttons provided, or /start to begin again."
	msgUseStart    = "I'm not sure what you mean. Use /start to create a CV."
	msgStaleButton = "Please finish your current process or use /start again."
)

func mainMenu() [][]Button {
	return [][]Button{
		{{Text: "✨ Create New CV from Scratch", Data: ButtonScratch}},
		{{Text: "📄 Upload Existing CV (PDF/DOCX)", Data: ButtonUpload}},
	}
}

func reviewButtons() [][]Button {
	return [][]Button{{
		{Text: "✅ Yes, looks good!", Data: ButtonReviewYes},
		{Text: "❌ No, let me restart", Data: ButtonReviewNo},
	}}
}

func templateButtons() [][]Button {
	templates := render.Templates()
	rows := make([][]Button, 0, len(templates))
	for i, info := range templates {
		rows = append(rows, []Button{{
			Text: fmt.Sprintf("%d. %s", i+1, info.Name),
			Data: ButtonTemplatePrefix + string(info.Key),
		}})
	}
	return rows
}
