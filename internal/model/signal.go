package model

// ResponseSignal is a machine-readable status keyword carried in API
// response messages.
type ResponseSignal string

const (
	SignalFileValidatedSuccess ResponseSignal = "file_validated_successfully"
	SignalFileTypeNotSupported ResponseSignal = "file_type_not_supported"
	SignalFileSizeExceeded     ResponseSignal = "file_size_exceeded"
	SignalFileUploadSuccess    ResponseSignal = "file_upload_success"
	SignalFileUploadFailed     ResponseSignal = "file_upload_failed"

	SignalProcessingSuccess ResponseSignal = "processing_success"
	SignalProcessingFailed  ResponseSignal = "processing_failed"
	SignalNoFilesError      ResponseSignal = "not_found_files"
	SignalFileIDError       ResponseSignal = "no_file_found_with_this_id"

	SignalProjectNotFound ResponseSignal = "project_not_found"

	SignalInsertIntoVectorDBFailed ResponseSignal = "insert_into_vectordb_failed"
	SignalIndexIntoVectorDBSuccess ResponseSignal = "index_into_vectordb_success"
	SignalCollectionRetrieved      ResponseSignal = "vectordb_collection_retrieved"
	SignalCollectionInfoFailed     ResponseSignal = "vectordb_collection_info_failed"
	SignalSearchVectorDBFailed     ResponseSignal = "search_vectordb_failed"
	SignalSearchVectorDBSuccess    ResponseSignal = "search_vectordb_success"
	SignalAnswerRAGFailed          ResponseSignal = "answer_rag_failed"
	SignalAnswerRAGSuccess         ResponseSignal = "answer_rag_success"
)

// String returns the signal keyword.
func (s ResponseSignal) String() string {
	return string(s)
}
